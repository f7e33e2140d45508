package orders

import "time"

// Type distinguishes how an order is fulfilled at the branch.
type Type string

const (
	TypeDineIn   Type = "DINE_IN"
	TypeTakeaway Type = "TAKEAWAY"
)

// Valid reports whether t is a known order type.
func (t Type) Valid() bool {
	return t == TypeDineIn || t == TypeTakeaway
}

// Status tracks order fulfilment. This core only ever writes RECEIVED;
// the remaining transitions belong to the kitchen workflow.
type Status string

const (
	StatusReceived  Status = "RECEIVED"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Line is a priced order entry, frozen at purchase time. Prices are in
// minor currency units.
type Line struct {
	ItemID    string `bson:"item_id" json:"item_id"`
	Name      string `bson:"name" json:"name"`
	UnitPrice int64  `bson:"unit_price" json:"unit_price"`
	Quantity  int64  `bson:"quantity" json:"quantity"`
	LineTotal int64  `bson:"line_total" json:"line_total"`
}

// Order is immutable once created. Later catalog changes never reach it.
// IDs are UUID strings assigned by the purchase paths.
type Order struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	BranchID  string    `bson:"branch_id" json:"branch_id"`
	Lines     []Line    `bson:"lines" json:"lines"`
	Total     int64     `bson:"total" json:"total"`
	Type      Type      `bson:"type" json:"type"`
	Status    Status    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
