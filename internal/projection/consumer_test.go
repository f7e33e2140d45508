package projection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dinehub/ordering/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	m           sync.Mutex
	projections map[string]*OrderProjection
	err         error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{projections: make(map[string]*OrderProjection)}
}

func (f *fakeRepo) InsertProjection(_ context.Context, p *OrderProjection) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, exists := f.projections[p.OrderID]; exists {
		return ErrDuplicateOrder
	}
	f.projections[p.OrderID] = p
	return nil
}

func (f *fakeRepo) GetProjectionByOrderID(_ context.Context, orderID string) (*OrderProjection, error) {
	f.m.Lock()
	defer f.m.Unlock()
	p, ok := f.projections[orderID]
	if !ok {
		return nil, ErrProjectionNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListProjectionsByBranch(_ context.Context, branchID string) ([]*OrderProjection, error) {
	f.m.Lock()
	defer f.m.Unlock()
	var out []*OrderProjection
	for _, p := range f.projections {
		if p.BranchID == branchID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) RunMigrations(*Credentials) error { return nil }
func (f *fakeRepo) Close() error                     { return nil }

func testOrder(id string) *orders.Order {
	return &orders.Order{
		ID:       id,
		UserID:   "u1",
		BranchID: "b1",
		Lines: []orders.Line{
			{ItemID: "i1", Name: "Ladoo", UnitPrice: 250, Quantity: 5, LineTotal: 1250},
		},
		Total:     1250,
		Type:      orders.TypeDineIn,
		Status:    orders.StatusReceived,
		CreatedAt: time.Now(),
	}
}

func TestProject_InsertsProjection(t *testing.T) {
	repo := newFakeRepo()
	c := &Consumer{repo: repo}

	err := c.project(context.Background(), testOrder("order-1"))
	require.NoError(t, err)

	p, err := repo.GetProjectionByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "b1", p.BranchID)
	assert.Equal(t, int64(1250), p.Total)
	assert.Equal(t, orders.StatusReceived, p.Status)
	assert.Len(t, p.Lines, 1)
}

func TestProject_DuplicateOrderIsSkipped(t *testing.T) {
	repo := newFakeRepo()
	c := &Consumer{repo: repo}
	ctx := context.Background()

	require.NoError(t, c.project(ctx, testOrder("order-1")))

	// Redelivered event: must not fail and must not overwrite.
	assert.NoError(t, c.project(ctx, testOrder("order-1")))
	assert.Len(t, repo.projections, 1)
}
