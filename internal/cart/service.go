package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dinehub/ordering/internal/catalog"
	"github.com/dinehub/ordering/internal/orders"
	"golang.org/x/sync/singleflight"
)

var (
	ErrUnsellable     = errors.New("item is currently unavailable")
	ErrBranchMismatch = errors.New("item belongs to a different branch than the cart")
	ErrInvalidInput   = errors.New("invalid input")
)

// Manager mutates per-user carts. Sellability checks here are advisory:
// the checkout engine re-validates everything inside its transaction.
type Manager struct {
	repo  Repository
	items catalog.Repository
	cache Cache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewManager(repo Repository, items catalog.Repository, cache Cache) *Manager {
	return &Manager{
		repo:  repo,
		items: items,
		cache: cache,
	}
}

// GetCart returns the user's cart, or an empty one if none exists yet.
func (m *Manager) GetCart(ctx context.Context, userID string) (*Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := m.sfg.Do(userID, func() (interface{}, error) {

		c, err := m.cache.Get(ctx, userID)
		if err == nil {
			return c, nil // cart is in cache
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		c, errGet := m.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, ErrCartNotFound) {
			return &Cart{
				UserID:    userID,
				Lines:     nil,
				OrderType: orders.TypeDineIn,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := m.cache.Set(context.Background(), userID, c)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return c, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*Cart), nil
}

// AddOrReplaceItem puts qty units of the item into the cart, creating the
// cart if needed. A line that already exists has its quantity overwritten
// (not summed) and its price snapshot refreshed. Adding an item from a
// different branch than a non-empty cart is rejected.
func (m *Manager) AddOrReplaceItem(ctx context.Context, userID, itemID string, qty int64) (*Cart, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	item, err := m.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Sellability.CanSell() {
		return nil, fmt.Errorf("%w: %s", ErrUnsellable, item.Name)
	}

	c, err := m.repo.GetCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		c = &Cart{UserID: userID, OrderType: orders.TypeDineIn}
	} else if err != nil {
		return nil, err
	}

	if branch := c.BranchID(); branch != "" && branch != item.BranchID {
		return nil, fmt.Errorf("%w: %s", ErrBranchMismatch, item.Name)
	}

	now := time.Now()
	if line := c.FindLine(itemID); line != nil {
		line.Quantity = qty
		line.UnitPrice = item.Price
		line.Name = item.Name
		line.AddedAt = now
	} else {
		c.Lines = append(c.Lines, Line{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  qty,
			BranchID:  item.BranchID,
			AddedAt:   now,
		})
	}
	c.Recalculate()

	if err := m.repo.UpsertCart(ctx, c); err != nil {
		return nil, err
	}

	m.invalidateCache(userID)
	return c, nil
}

// SetItemQuantity overwrites the quantity of an existing line. Counted
// items are checked against current stock here so the caller gets an early
// insufficient-stock error; the binding check still happens at checkout.
func (m *Manager) SetItemQuantity(ctx context.Context, userID, itemID string, qty int64) (*Cart, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1, remove the item instead", ErrInvalidInput)
	}

	c, err := m.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	line := c.FindLine(itemID)
	if line == nil {
		return nil, ErrLineNotFound
	}

	item, err := m.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Sellability.CanSell() {
		return nil, fmt.Errorf("%w: %s", ErrUnsellable, item.Name)
	}
	if !item.Sellability.HasStock(qty) {
		return nil, fmt.Errorf("%w: %s: requested %d, available %d",
			catalog.ErrInsufficientStock, item.Name, qty, item.Sellability.Stock)
	}

	line.Quantity = qty
	c.Recalculate()

	if err := m.repo.UpsertCart(ctx, c); err != nil {
		return nil, err
	}

	m.invalidateCache(userID)
	return c, nil
}

// RemoveItem drops the line for itemID. Removing an item that is not in
// the cart is a no-op, not an error.
func (m *Manager) RemoveItem(ctx context.Context, userID, itemID string) (*Cart, error) {
	c, err := m.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	filtered := c.Lines[:0]
	for _, line := range c.Lines {
		if line.ItemID != itemID {
			filtered = append(filtered, line)
		}
	}
	c.Lines = filtered
	c.Recalculate()

	if err := m.repo.UpsertCart(ctx, c); err != nil {
		return nil, err
	}

	m.invalidateCache(userID)
	return c, nil
}

// SetOrderType switches the cart between dine-in and takeaway.
func (m *Manager) SetOrderType(ctx context.Context, userID string, orderType orders.Type) (*Cart, error) {
	if !orderType.Valid() {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrInvalidInput, orderType)
	}

	c, err := m.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.OrderType = orderType

	if err := m.repo.UpsertCart(ctx, c); err != nil {
		return nil, err
	}

	m.invalidateCache(userID)
	return c, nil
}

func (m *Manager) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
