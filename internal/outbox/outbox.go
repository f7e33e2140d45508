package outbox

import (
	"context"
	"time"
)

const EventOrderPlaced = "order_placed"

// Event is one pending publication. Payload is JSON, written in the same
// transaction as the state change it describes.
type Event struct {
	ID          string    `bson:"_id" json:"id"`
	AggregateID string    `bson:"aggregate_id" json:"aggregate_id"`
	EventType   string    `bson:"event_type" json:"event_type"`
	Payload     []byte    `bson:"payload" json:"payload"`
	Processed   bool      `bson:"processed" json:"processed"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Store persists outbox events. Append is expected to run inside the
// caller's transaction so the event and the order commit together.
type Store interface {
	Append(ctx context.Context, event *Event) error
	GetUnprocessed(ctx context.Context, limit int64) ([]*Event, error)
	MarkProcessed(ctx context.Context, eventID string) error
}
