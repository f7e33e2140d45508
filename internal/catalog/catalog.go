package catalog

import "time"

// SellMode selects how an item's sellability is tracked. Menu-style items
// are toggled on and off by hand (unlimited); retail-style items carry a
// stock count that purchases decrement.
type SellMode string

const (
	ModeUnlimited SellMode = "unlimited"
	ModeCounted   SellMode = "counted"
)

// Sellability is a tagged variant: exactly one of Available or Stock is
// meaningful, depending on Mode.
type Sellability struct {
	Mode      SellMode `bson:"mode" json:"mode"`
	Available bool     `bson:"available" json:"available"`
	Stock     int64    `bson:"stock" json:"stock"`
}

// CanSell reports whether any purchase of the item is currently possible.
// Quantity checks for counted items happen separately, at purchase time.
func (s Sellability) CanSell() bool {
	switch s.Mode {
	case ModeCounted:
		return s.Stock > 0
	default:
		return s.Available
	}
}

// HasStock reports whether a counted item can cover qty. Unlimited items
// always pass.
func (s Sellability) HasStock(qty int64) bool {
	if s.Mode != ModeCounted {
		return true
	}
	return s.Stock >= qty
}

// Item is a sellable catalog entry. Price is in minor currency units.
type Item struct {
	ID          string      `bson:"_id" json:"id"`
	Name        string      `bson:"name" json:"name"`
	Price       int64       `bson:"price" json:"price"`
	Category    string      `bson:"category" json:"category"`
	BranchID    string      `bson:"branch_id" json:"branch_id"`
	ImageURL    string      `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Sellability Sellability `bson:"sellability" json:"sellability"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at" json:"updated_at"`
}
