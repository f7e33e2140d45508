package projection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "projection_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresRepository) InsertProjection(ctx context.Context, p *OrderProjection) error {
	linesJSON, err := json.Marshal(p.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}

	query := `INSERT INTO order_projections (order_id, user_id, branch_id, total, order_type, status, lines, placed_at, inserted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		p.OrderID,
		p.UserID,
		p.BranchID,
		p.Total,
		p.Type,
		p.Status,
		linesJSON,
		p.PlacedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert projection: %w", insertErr)
	}
	return nil
}

func (r *PostgresRepository) GetProjectionByOrderID(ctx context.Context, orderID string) (*OrderProjection, error) {
	query := `SELECT order_id, user_id, branch_id, total, order_type, status, lines, placed_at, inserted_at
	          FROM order_projections WHERE order_id = $1`

	var p OrderProjection
	var linesJSON []byte
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&p.OrderID,
		&p.UserID,
		&p.BranchID,
		&p.Total,
		&p.Type,
		&p.Status,
		&linesJSON,
		&p.PlacedAt,
		&p.InsertedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query projection by order id: %w", err)
	}

	if err := json.Unmarshal(linesJSON, &p.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal order lines: %w", err)
	}

	return &p, nil
}

func (r *PostgresRepository) ListProjectionsByBranch(ctx context.Context, branchID string) ([]*OrderProjection, error) {
	query := `SELECT order_id, user_id, branch_id, total, order_type, status, lines, placed_at, inserted_at
	          FROM order_projections WHERE branch_id = $1 ORDER BY placed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("query projections by branch: %w", err)
	}
	defer rows.Close()

	var result []*OrderProjection
	for rows.Next() {
		var p OrderProjection
		var linesJSON []byte
		if err := rows.Scan(
			&p.OrderID,
			&p.UserID,
			&p.BranchID,
			&p.Total,
			&p.Type,
			&p.Status,
			&linesJSON,
			&p.PlacedAt,
			&p.InsertedAt,
		); err != nil {
			return nil, fmt.Errorf("scan projection row: %w", err)
		}
		if err := json.Unmarshal(linesJSON, &p.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal order lines: %w", err)
		}
		result = append(result, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
