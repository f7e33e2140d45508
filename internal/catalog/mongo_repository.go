package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("items"),
	}
}

func (m *mongoRepository) GetItem(ctx context.Context, itemID string) (*Item, error) {
	var item Item

	filter := bson.M{"_id": itemID}
	err := m.collection.FindOne(ctx, filter).Decode(&item)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

func (m *mongoRepository) UpsertItem(ctx context.Context, item *Item) error {
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	filter := bson.M{"_id": item.ID}
	update := bson.M{"$set": item}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	return nil
}

// DecrementStock uses a conditional $inc so the stock check and the
// decrement are one atomic write. A concurrent buyer of the last units
// simply fails to match the filter.
func (m *mongoRepository) DecrementStock(ctx context.Context, itemID string, qty int64) error {
	filter := bson.M{
		"_id":               itemID,
		"sellability.mode":  ModeCounted,
		"sellability.stock": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"sellability.stock": -qty},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if result.MatchedCount == 0 {
		// Distinguish a missing item from one that is merely short.
		var item Item
		errFind := m.collection.FindOne(ctx, bson.M{"_id": itemID}).Decode(&item)
		if errors.Is(errFind, mongo.ErrNoDocuments) {
			return ErrItemNotFound
		}
		if errFind != nil {
			return fmt.Errorf("failed to re-check item: %w", errFind)
		}
		return fmt.Errorf("%w: %s: requested %d, available %d",
			ErrInsufficientStock, item.Name, qty, item.Sellability.Stock)
	}

	return nil
}

func (m *mongoRepository) SetAvailability(ctx context.Context, itemID string, available bool) error {
	filter := bson.M{"_id": itemID}
	update := bson.M{
		"$set": bson.M{
			"sellability.available": available,
			"updated_at":            time.Now(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "branch_id", Value: 1}, {Key: "category", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
