package catalog

import (
	"context"
	"errors"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository defines the interface for catalog data operations.
// Consumers define this interface, not the MongoDB implementation.
type Repository interface {
	GetItem(ctx context.Context, itemID string) (*Item, error)
	UpsertItem(ctx context.Context, item *Item) error
	// DecrementStock atomically subtracts qty from a counted item's stock.
	// Returns ErrInsufficientStock when the item has fewer than qty units.
	DecrementStock(ctx context.Context, itemID string, qty int64) error
	SetAvailability(ctx context.Context, itemID string, available bool) error
}
