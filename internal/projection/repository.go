package projection

import (
	"context"
	"errors"
	"time"

	"github.com/dinehub/ordering/internal/orders"
)

var (
	ErrProjectionNotFound = errors.New("order projection not found")
	ErrDuplicateOrder     = errors.New("projection for this order already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OrderProjection is the reporting-side copy of an order.
type OrderProjection struct {
	OrderID    string
	UserID     string
	BranchID   string
	Total      int64
	Type       orders.Type
	Status     orders.Status
	Lines      []orders.Line
	PlacedAt   time.Time
	InsertedAt time.Time
}

type Repository interface {
	InsertProjection(ctx context.Context, p *OrderProjection) error
	GetProjectionByOrderID(ctx context.Context, orderID string) (*OrderProjection, error)
	ListProjectionsByBranch(ctx context.Context, branchID string) ([]*OrderProjection, error)
	RunMigrations(*Credentials) error
	Close() error
}
