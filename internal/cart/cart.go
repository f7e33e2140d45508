package cart

import (
	"time"

	"github.com/dinehub/ordering/internal/orders"
)

// Line is one basket entry. Name and UnitPrice are captured when the item
// is added; checkout re-validates sellability but never the price.
type Line struct {
	ItemID    string    `bson:"item_id" json:"item_id"`
	Name      string    `bson:"name" json:"name"`
	UnitPrice int64     `bson:"unit_price" json:"unit_price"`
	Quantity  int64     `bson:"quantity" json:"quantity"`
	BranchID  string    `bson:"branch_id" json:"branch_id"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Cart is a per-user mutable basket. Total is a cached sum kept in step
// with Lines by Recalculate. A cart is never deleted, only cleared.
type Cart struct {
	ID        string      `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string      `bson:"user_id" json:"user_id"`
	Lines     []Line      `bson:"lines" json:"lines"`
	Total     int64       `bson:"total" json:"total"`
	OrderType orders.Type `bson:"order_type" json:"order_type"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}

// Recalculate recomputes the cached total from the lines.
func (c *Cart) Recalculate() {
	var total int64
	for _, line := range c.Lines {
		total += line.UnitPrice * line.Quantity
	}
	c.Total = total
}

// BranchID returns the branch the cart is bound to, derived from the first
// line. Empty carts are not bound to any branch.
func (c *Cart) BranchID() string {
	if len(c.Lines) == 0 {
		return ""
	}
	return c.Lines[0].BranchID
}

// FindLine returns the line for itemID, or nil.
func (c *Cart) FindLine(itemID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			return &c.Lines[i]
		}
	}
	return nil
}
