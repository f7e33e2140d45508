package cart

import (
	"context"
	"errors"
)

// Cache is the read-through cart cache the Manager consults before the
// repository. Implementations live elsewhere (see internal/cache).
type Cache interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Set(ctx context.Context, userID string, c *Cart) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
