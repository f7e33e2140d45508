package checkout

import (
	"errors"

	"github.com/dinehub/ordering/internal/catalog"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrItemVanished      = errors.New("item no longer exists")
	ErrItemUnsellable    = errors.New("item is currently unavailable")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInsufficientStock is the catalog sentinel, re-exported so callers
	// of this package have the full purchase-failure taxonomy in one place.
	ErrInsufficientStock = catalog.ErrInsufficientStock
)
