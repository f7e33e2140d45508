package projection

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/dinehub/ordering/internal/orders"
	"github.com/segmentio/kafka-go"
)

// Consumer mirrors placed orders into the reporting store. Payloads are
// the order JSON written by the checkout outbox.
type Consumer struct {
	repo   Repository
	reader *kafka.Reader
}

func NewConsumer(repo Repository, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-placed",
		GroupID:  "order-projector",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{repo, reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var order orders.Order
	if err := json.Unmarshal(m.Value, &order); err != nil {
		log.Printf("error parsing message: %v", err)
		return
	}
	if order.ID == "" {
		log.Printf("skipping order event without id")
		return
	}

	if err := c.project(ctx, &order); err != nil {
		log.Printf("failed to project order %s: %v", order.ID, err)
	}
}

func (c *Consumer) project(ctx context.Context, order *orders.Order) error {
	p := &OrderProjection{
		OrderID:  order.ID,
		UserID:   order.UserID,
		BranchID: order.BranchID,
		Total:    order.Total,
		Type:     order.Type,
		Status:   order.Status,
		Lines:    order.Lines,
		PlacedAt: order.CreatedAt,
	}

	err := c.repo.InsertProjection(ctx, p)
	if errors.Is(err, ErrDuplicateOrder) {
		// Redelivery after a publish/mark race upstream, safe to drop.
		log.Printf("projection for order %s already exists, skipping", order.ID)
		return nil
	}
	return err
}
