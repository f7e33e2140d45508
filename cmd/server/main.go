package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dinehub/ordering/internal/cache"
	"github.com/dinehub/ordering/internal/cart"
	"github.com/dinehub/ordering/internal/catalog"
	"github.com/dinehub/ordering/internal/checkout"
	"github.com/dinehub/ordering/internal/orders"
	"github.com/dinehub/ordering/internal/outbox"
	"github.com/dinehub/ordering/internal/server"
	"github.com/dinehub/ordering/pkg/database"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "ordering"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type indexCreator interface {
	CreateIndexes(ctx context.Context) error
}

func main() {
	cfg := loadConfig()

	ctx := context.Background()
	mongoDB, err := database.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	cartRepo := cart.NewMongoRepository(mongoDB)
	catalogRepo := catalog.NewMongoRepository(mongoDB)
	ordersRepo := orders.NewMongoRepository(mongoDB)
	outboxStore := outbox.NewMongoStore(mongoDB)

	for _, repo := range []interface{}{cartRepo, catalogRepo, ordersRepo} {
		if creator, ok := repo.(indexCreator); ok {
			if err := creator.CreateIndexes(ctx); err != nil {
				log.Fatalf("Failed to create indexes: %v", err)
			}
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cartCache := cache.NewRedisCache(redisClient)
	manager := cart.NewManager(cartRepo, catalogRepo, cartCache)

	txRunner := checkout.NewMongoTxRunner(mongoDB.Client())
	engine := checkout.NewEngine(cartRepo, catalogRepo, ordersRepo, outboxStore, txRunner, cartCache)

	pollerCtx, stopPoller := context.WithCancel(ctx)
	poller := outbox.NewPoller(outboxStore, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)
	defer poller.Close()

	router := server.NewRouter(
		server.NewCartHandler(manager),
		server.NewCheckoutHandler(engine),
		server.NewOrdersHandler(ordersRepo),
		server.NewCatalogHandler(catalogRepo),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "ordering-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Ordering API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Printf("mongo disconnect error: %v", err)
	}

	log.Println("server exited")
}
