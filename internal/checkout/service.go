package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dinehub/ordering/internal/cart"
	"github.com/dinehub/ordering/internal/catalog"
	"github.com/dinehub/ordering/internal/orders"
	"github.com/dinehub/ordering/internal/outbox"
	"github.com/google/uuid"
)

// Confirmation is returned to the caller after a successful purchase.
type Confirmation struct {
	OrderID string `json:"order_id"`
	Total   int64  `json:"total"`
	Message string `json:"message"`
}

// Engine converts carts (or single items, via BuyNow) into orders. Every
// purchase path runs inside one transaction: validation, stock decrement,
// order insert, outbox append, and cart clear commit or roll back together.
type Engine struct {
	carts  cart.Repository
	items  catalog.Repository
	orders orders.Repository
	outbox outbox.Store
	tx     TxRunner
	cache  cart.Cache
}

func NewEngine(carts cart.Repository, items catalog.Repository, ordersRepo orders.Repository, outboxStore outbox.Store, tx TxRunner, cache cart.Cache) *Engine {
	return &Engine{
		carts:  carts,
		items:  items,
		orders: ordersRepo,
		outbox: outboxStore,
		tx:     tx,
		cache:  cache,
	}
}

// ConfirmOrder turns the user's cart into an order. Prices are the cart's
// add-time snapshots; only sellability is re-checked against the catalog.
// Counted items are decremented, unlimited items only availability-checked.
func (e *Engine) ConfirmOrder(ctx context.Context, userID string) (*Confirmation, error) {
	var order *orders.Order

	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := e.carts.GetCart(ctx, userID)
		if errors.Is(err, cart.ErrCartNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if len(c.Lines) == 0 {
			return ErrEmptyCart
		}

		lines := make([]orders.Line, 0, len(c.Lines))
		for _, line := range c.Lines {
			if err := e.takeStock(ctx, line.ItemID, line.Name, line.Quantity); err != nil {
				return err
			}
			lines = append(lines, orders.Line{
				ItemID:    line.ItemID,
				Name:      line.Name,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
				LineTotal: line.UnitPrice * line.Quantity,
			})
		}

		orderType := c.OrderType
		if !orderType.Valid() {
			orderType = orders.TypeDineIn
		}

		order = buildOrder(userID, c.BranchID(), orderType, lines)
		if err := e.orders.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := e.appendOrderPlaced(ctx, order); err != nil {
			return err
		}

		return e.carts.ClearCart(ctx, userID)
	})
	if err != nil {
		return nil, e.classify(err)
	}

	e.invalidateCache(userID)

	return &Confirmation{
		OrderID: order.ID,
		Total:   order.Total,
		Message: "order placed",
	}, nil
}

// BuyNow purchases a single item without touching the cart. The order line
// is built from the item's current snapshot, not a cart price.
func (e *Engine) BuyNow(ctx context.Context, userID, itemID string, qty int64, orderType orders.Type) (*Confirmation, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}
	if orderType == "" {
		orderType = orders.TypeDineIn
	}
	if !orderType.Valid() {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrInvalidInput, orderType)
	}

	var order *orders.Order

	err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		item, err := e.items.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if err := e.takeStock(ctx, item.ID, item.Name, qty); err != nil {
			return err
		}

		lines := []orders.Line{{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  qty,
			LineTotal: item.Price * qty,
		}}

		order = buildOrder(userID, item.BranchID, orderType, lines)
		if err := e.orders.CreateOrder(ctx, order); err != nil {
			return err
		}
		return e.appendOrderPlaced(ctx, order)
	})
	if err != nil {
		return nil, e.classify(err)
	}

	return &Confirmation{
		OrderID: order.ID,
		Total:   order.Total,
		Message: "order placed",
	}, nil
}

// takeStock is the authoritative sellability check. For unlimited items it
// verifies the availability flag; for counted items it checks and
// decrements in one conditional write.
func (e *Engine) takeStock(ctx context.Context, itemID, name string, qty int64) error {
	item, err := e.items.GetItem(ctx, itemID)
	if errors.Is(err, catalog.ErrItemNotFound) {
		return fmt.Errorf("%w: %s", ErrItemVanished, name)
	}
	if err != nil {
		return err
	}

	switch item.Sellability.Mode {
	case catalog.ModeCounted:
		return e.items.DecrementStock(ctx, itemID, qty)
	default:
		if !item.Sellability.Available {
			return fmt.Errorf("%w: %s", ErrItemUnsellable, item.Name)
		}
		return nil
	}
}

func (e *Engine) appendOrderPlaced(ctx context.Context, order *orders.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order payload: %w", err)
	}

	return e.outbox.Append(ctx, &outbox.Event{
		ID:          uuid.New().String(),
		AggregateID: order.ID,
		EventType:   outbox.EventOrderPlaced,
		Payload:     payload,
	})
}

func buildOrder(userID, branchID string, orderType orders.Type, lines []orders.Line) *orders.Order {
	var total int64
	for _, line := range lines {
		total += line.LineTotal
	}

	return &orders.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		BranchID:  branchID,
		Lines:     lines,
		Total:     total,
		Type:      orderType,
		Status:    orders.StatusReceived,
		CreatedAt: time.Now(),
	}
}

// classify keeps taxonomy errors intact and folds everything else (commit
// conflicts, aborted sessions) into ErrTransactionFailed.
func (e *Engine) classify(err error) error {
	for _, known := range []error{
		ErrEmptyCart, ErrItemVanished, ErrItemUnsellable, ErrInvalidInput,
		catalog.ErrItemNotFound, catalog.ErrInsufficientStock,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
}

func (e *Engine) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
