package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dinehub/ordering/internal/cart"
	"github.com/dinehub/ordering/internal/catalog"
	"github.com/dinehub/ordering/internal/checkout"
	"github.com/dinehub/ordering/internal/orders"
	"github.com/dinehub/ordering/internal/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCartRepo struct {
	m     sync.Mutex
	carts map[string]*cart.Cart
}

func (r *memCartRepo) GetCart(_ context.Context, userID string) (*cart.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	copied := *c
	copied.Lines = append([]cart.Line(nil), c.Lines...)
	return &copied, nil
}

func (r *memCartRepo) UpsertCart(_ context.Context, c *cart.Cart) error {
	r.m.Lock()
	defer r.m.Unlock()
	copied := *c
	copied.Lines = append([]cart.Line(nil), c.Lines...)
	r.carts[c.UserID] = &copied
	return nil
}

func (r *memCartRepo) ClearCart(_ context.Context, userID string) error {
	r.m.Lock()
	defer r.m.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return cart.ErrCartNotFound
	}
	c.Lines = []cart.Line{}
	c.Total = 0
	return nil
}

type memCatalogRepo struct {
	m     sync.Mutex
	items map[string]*catalog.Item
}

func (r *memCatalogRepo) GetItem(_ context.Context, itemID string) (*catalog.Item, error) {
	r.m.Lock()
	defer r.m.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *memCatalogRepo) UpsertItem(_ context.Context, item *catalog.Item) error {
	r.m.Lock()
	defer r.m.Unlock()
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memCatalogRepo) DecrementStock(_ context.Context, itemID string, qty int64) error {
	r.m.Lock()
	defer r.m.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return catalog.ErrItemNotFound
	}
	if item.Sellability.Stock < qty {
		return catalog.ErrInsufficientStock
	}
	item.Sellability.Stock -= qty
	return nil
}

func (r *memCatalogRepo) SetAvailability(_ context.Context, itemID string, available bool) error {
	r.m.Lock()
	defer r.m.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return catalog.ErrItemNotFound
	}
	item.Sellability.Available = available
	return nil
}

type memOrderRepo struct {
	m      sync.Mutex
	orders []*orders.Order
}

func (r *memOrderRepo) CreateOrder(_ context.Context, order *orders.Order) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.orders = append(r.orders, order)
	return nil
}

func (r *memOrderRepo) GetOrderByID(_ context.Context, id string) (*orders.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, orders.ErrOrderNotFound
}

func (r *memOrderRepo) ListOrdersByUserID(_ context.Context, userID string) ([]*orders.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	var out []*orders.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type memOutbox struct {
	m      sync.Mutex
	events []*outbox.Event
}

func (o *memOutbox) Append(_ context.Context, event *outbox.Event) error {
	o.m.Lock()
	defer o.m.Unlock()
	o.events = append(o.events, event)
	return nil
}

func (o *memOutbox) GetUnprocessed(context.Context, int64) ([]*outbox.Event, error) {
	return nil, nil
}

func (o *memOutbox) MarkProcessed(context.Context, string) error { return nil }

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nilCache struct{}

func (nilCache) Get(context.Context, string) (*cart.Cart, error) { return nil, cart.ErrCacheMiss }
func (nilCache) Set(context.Context, string, *cart.Cart) error   { return nil }
func (nilCache) Delete(context.Context, string) error            { return nil }

func setupServer(items ...*catalog.Item) http.Handler {
	cartRepo := &memCartRepo{carts: make(map[string]*cart.Cart)}
	catalogRepo := &memCatalogRepo{items: make(map[string]*catalog.Item)}
	for _, item := range items {
		copied := *item
		catalogRepo.items[item.ID] = &copied
	}
	orderRepo := &memOrderRepo{}

	manager := cart.NewManager(cartRepo, catalogRepo, nilCache{})
	engine := checkout.NewEngine(cartRepo, catalogRepo, orderRepo, &memOutbox{}, passthroughTx{}, nilCache{})

	return NewRouter(
		NewCartHandler(manager),
		NewCheckoutHandler(engine),
		NewOrdersHandler(orderRepo),
		NewCatalogHandler(catalogRepo),
		5*time.Second,
	)
}

func doRequest(t *testing.T, h http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sellableItem(id, name, branch string, price int64) *catalog.Item {
	return &catalog.Item{
		ID:       id,
		Name:     name,
		Price:    price,
		BranchID: branch,
		Sellability: catalog.Sellability{
			Mode:      catalog.ModeUnlimited,
			Available: true,
		},
	}
}

func stockedItem(id, name, branch string, price, stock int64) *catalog.Item {
	return &catalog.Item{
		ID:       id,
		Name:     name,
		Price:    price,
		BranchID: branch,
		Sellability: catalog.Sellability{
			Mode:  catalog.ModeCounted,
			Stock: stock,
		},
	}
}

func TestAddItem_RequiresAuth(t *testing.T) {
	h := setupServer()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", "", `{"item_id":"i1","quantity":1}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddItem_Success(t *testing.T) {
	h := setupServer(sellableItem("i1", "Ladoo", "b1", 250))

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", "u1", `{"item_id":"i1","quantity":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var c cart.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(1250), c.Total)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	h := setupServer(sellableItem("i1", "Ladoo", "b1", 250))

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", "u1", `{"item_id":"i1","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_UnknownItem(t *testing.T) {
	h := setupServer()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", "u1", `{"item_id":"nope","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItem_UnsellableConflict(t *testing.T) {
	item := sellableItem("i1", "Ladoo", "b1", 250)
	item.Sellability.Available = false
	h := setupServer(item)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", "u1", `{"item_id":"i1","quantity":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ladoo")
}

func TestUpdateQuantity_NotInCart(t *testing.T) {
	h := setupServer(sellableItem("i1", "Ladoo", "b1", 250))

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", "u1", `{"item_id":"i1","quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodPut, "/api/v1/cart/items/other", "u1", `{"quantity":2}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_EmptyCart(t *testing.T) {
	h := setupServer()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/checkout", "u1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty_cart")
}

func TestCheckout_Success(t *testing.T) {
	h := setupServer(sellableItem("i1", "Ladoo", "b1", 250))

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", "u1", `{"item_id":"i1","quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/checkout", "u1", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var confirmation checkout.Confirmation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmation))
	assert.NotEmpty(t, confirmation.OrderID)
	assert.Equal(t, int64(500), confirmation.Total)

	// Cart is now empty.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/cart", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var c cart.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Empty(t, c.Lines)

	// The order is visible to its owner.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/orders/"+confirmation.OrderID, "u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// But not to anyone else.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/orders/"+confirmation.OrderID, "u2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuyNow_Success(t *testing.T) {
	h := setupServer(stockedItem("i1", "Ladoo", "b1", 250, 50))

	rec := doRequest(t, h, http.MethodPost, "/api/v1/purchase", "u1", `{"item_id":"i1","quantity":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var confirmation checkout.Confirmation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmation))
	assert.Equal(t, int64(1250), confirmation.Total)

	// Stock visible through the catalog endpoint dropped to 45.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/items/i1", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var item catalog.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, int64(45), item.Sellability.Stock)
}

func TestBuyNow_InsufficientStock(t *testing.T) {
	h := setupServer(stockedItem("i1", "Ladoo", "b1", 250, 3))

	rec := doRequest(t, h, http.MethodPost, "/api/v1/purchase", "u1", `{"item_id":"i1","quantity":5}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_stock")
}

func TestBuyNow_InvalidBody(t *testing.T) {
	h := setupServer()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/purchase", "u1", `{bad json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetOrderType(t *testing.T) {
	h := setupServer(sellableItem("i1", "Ladoo", "b1", 250))

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", "u1", `{"item_id":"i1","quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodPut, "/api/v1/cart/order-type", "u1", `{"order_type":"TAKEAWAY"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var c cart.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, orders.TypeTakeaway, c.OrderType)
}

func TestListOrders_EmptyForNewUser(t *testing.T) {
	h := setupServer()

	rec := doRequest(t, h, http.MethodGet, "/api/v1/orders", "u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	h := setupServer()

	rec := doRequest(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
