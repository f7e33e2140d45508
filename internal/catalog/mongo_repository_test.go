package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/dinehub/ordering/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) (Repository, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := database.ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)

	mongoRepo := repo.(*mongoRepository)
	err = mongoRepo.CreateIndexes(ctx)
	require.NoError(t, err)

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func seedCountedItem(t *testing.T, repo Repository, id string, stock int64) {
	t.Helper()
	err := repo.UpsertItem(context.Background(), &Item{
		ID:       id,
		Name:     "Ladoo",
		Price:    250,
		BranchID: "b1",
		Sellability: Sellability{
			Mode:  ModeCounted,
			Stock: stock,
		},
	})
	require.NoError(t, err)
}

func TestGetItem_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	item, err := repo.GetItem(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Nil(t, item)
}

func TestUpsertItem_RoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCountedItem(t, repo, "i1", 50)

	item, err := repo.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "Ladoo", item.Name)
	assert.Equal(t, int64(250), item.Price)
	assert.Equal(t, ModeCounted, item.Sellability.Mode)
	assert.Equal(t, int64(50), item.Sellability.Stock)
}

func TestDecrementStock_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCountedItem(t, repo, "i1", 50)

	require.NoError(t, repo.DecrementStock(ctx, "i1", 5))

	item, err := repo.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, int64(45), item.Sellability.Stock)
}

func TestDecrementStock_Insufficient(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCountedItem(t, repo, "i1", 3)

	err := repo.DecrementStock(ctx, "i1", 5)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Ladoo")

	// Stock untouched on failure
	item, err := repo.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), item.Sellability.Stock)
}

func TestDecrementStock_ItemNotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.DecrementStock(context.Background(), "nonexistent", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// Two buyers racing for the last units: the conditional update must let
// exactly one of them through.
func TestDecrementStock_ConcurrentNoOverselling(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCountedItem(t, repo, "i1", 5)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.DecrementStock(ctx, "i1", 4)
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	item, err := repo.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.Sellability.Stock)
}

func TestSetAvailability(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.UpsertItem(ctx, &Item{
		ID:       "i1",
		Name:     "Jalebi",
		Price:    150,
		BranchID: "b1",
		Sellability: Sellability{
			Mode:      ModeUnlimited,
			Available: true,
		},
	}))

	require.NoError(t, repo.SetAvailability(ctx, "i1", false))

	item, err := repo.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.False(t, item.Sellability.Available)
}

func TestSetAvailability_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetAvailability(context.Background(), "nonexistent", true)
	assert.ErrorIs(t, err, ErrItemNotFound)
}
