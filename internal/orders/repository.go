package orders

import (
	"context"
	"errors"
)

var ErrOrderNotFound = errors.New("order not found")

// Repository is append-only for this core: orders are created once and
// read back, never updated here.
type Repository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*Order, error)
}
