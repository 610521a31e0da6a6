package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/shopcart/internal/domain/catalog"
)

// --- Mock implementations ---

type mockCatalog struct {
	products map[int64]catalog.Product
	stock    map[int64]int

	productErr error
	stockErr   error

	productCalls int
	stockCalls   int
}

func (m *mockCatalog) ListProducts(_ context.Context) ([]catalog.Product, error) {
	return nil, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	m.productCalls++
	if m.productErr != nil {
		return nil, m.productErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (m *mockCatalog) GetStock(_ context.Context, id int64) (*catalog.Stock, error) {
	m.stockCalls++
	if m.stockErr != nil {
		return nil, m.stockErr
	}
	amount, ok := m.stock[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &catalog.Stock{ID: id, Amount: amount}, nil
}

type mockStore struct {
	loaded  Cart
	loadErr error
	saveErr error
	saved   []Cart
}

func (m *mockStore) Save(_ context.Context, c Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, c)
	return nil
}

func (m *mockStore) Load(_ context.Context) (Cart, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.loaded == nil {
		return Cart{}, nil
	}
	return m.loaded, nil
}

type recordNotifier struct {
	notes []Notification
}

func (r *recordNotifier) Notify(_ context.Context, n Notification) {
	r.notes = append(r.notes, n)
}

// --- Helpers ---

func newTestCatalog() *mockCatalog {
	return &mockCatalog{
		products: map[int64]catalog.Product{
			3: {ID: 3, Title: "Running Shoe", Price: decimal.RequireFromString("99.90"), Image: "running.jpg"},
			7: {ID: 7, Title: "Walking Shoe", Price: decimal.RequireFromString("179.90"), Image: "walking.jpg"},
			9: {ID: 9, Title: "Trail Shoe", Price: decimal.RequireFromString("219.00"), Image: "trail.jpg"},
		},
		stock: map[int64]int{3: 10, 7: 5, 9: 2},
	}
}

func newTestEngine(t *testing.T, store *mockStore, cat *mockCatalog, notes *recordNotifier) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), store, cat, notes, zap.NewNop())
	require.NoError(t, err)
	return e
}

func entry(id int64, amount int) Product {
	return Product{
		ID:     id,
		Title:  "Shoe",
		Price:  decimal.RequireFromString("10.00"),
		Image:  "shoe.jpg",
		Amount: amount,
	}
}

// --- AddProduct ---

func TestAddProduct_AppendsNewProduct(t *testing.T) {
	store := &mockStore{}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, newTestCatalog(), notes)

	require.NoError(t, e.AddProduct(context.Background(), 7))

	items := e.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].ID)
	assert.Equal(t, 1, items[0].Amount)
	assert.Equal(t, "Walking Shoe", items[0].Title)
	assert.True(t, decimal.RequireFromString("179.90").Equal(items[0].Price))

	require.Len(t, store.saved, 1)
	assert.Equal(t, items, store.saved[0])
	assert.Empty(t, notes.notes)
}

func TestAddProduct_IncrementsExistingAmount(t *testing.T) {
	store := &mockStore{loaded: Cart{entry(7, 2)}}
	e := newTestEngine(t, store, newTestCatalog(), &recordNotifier{})

	require.NoError(t, e.AddProduct(context.Background(), 7))

	items := e.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Amount)
}

func TestAddProduct_OutOfStock(t *testing.T) {
	store := &mockStore{loaded: Cart{entry(7, 5)}}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, newTestCatalog(), notes)

	err := e.AddProduct(context.Background(), 7)

	var oosErr *OutOfStockError
	require.ErrorAs(t, err, &oosErr)
	assert.Equal(t, int64(7), oosErr.ProductID)
	assert.Equal(t, 6, oosErr.Requested)
	assert.Equal(t, 5, oosErr.Available)

	assert.Equal(t, Cart{entry(7, 5)}, e.Items())
	assert.Empty(t, store.saved)
	require.Len(t, notes.notes, 1)
	assert.Equal(t, ReasonOutOfStock, notes.notes[0].Reason)
}

func TestAddProduct_UnknownProduct(t *testing.T) {
	store := &mockStore{}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, newTestCatalog(), notes)

	err := e.AddProduct(context.Background(), 404)

	var missingErr *NotInCatalogError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, int64(404), missingErr.ProductID)

	assert.Empty(t, e.Items())
	assert.Empty(t, store.saved)
	require.Len(t, notes.notes, 1)
	assert.Equal(t, ReasonNotFound, notes.notes[0].Reason)
}

func TestAddProduct_CatalogUnreachable(t *testing.T) {
	cat := newTestCatalog()
	cat.productErr = errors.New("connection refused")
	store := &mockStore{}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, cat, notes)

	err := e.AddProduct(context.Background(), 7)

	require.Error(t, err)
	assert.NotErrorAs(t, err, new(*NotInCatalogError))
	assert.Empty(t, e.Items())
	require.Len(t, notes.notes, 1)
	assert.Equal(t, ReasonFailed, notes.notes[0].Reason)
}

func TestAddProduct_StockLookupFailure(t *testing.T) {
	cat := newTestCatalog()
	cat.stockErr = errors.New("connection refused")
	store := &mockStore{loaded: Cart{entry(7, 1)}}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, cat, notes)

	err := e.AddProduct(context.Background(), 7)

	require.Error(t, err)
	assert.Equal(t, Cart{entry(7, 1)}, e.Items())
	assert.Empty(t, store.saved)
	require.Len(t, notes.notes, 1)
	assert.Equal(t, ReasonFailed, notes.notes[0].Reason)
}

func TestAddProduct_StoreFailure(t *testing.T) {
	store := &mockStore{saveErr: errors.New("disk full")}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, newTestCatalog(), notes)

	err := e.AddProduct(context.Background(), 7)

	require.Error(t, err)
	assert.Empty(t, e.Items())
	require.Len(t, notes.notes, 1)
	assert.Equal(t, ReasonFailed, notes.notes[0].Reason)
}

// --- RemoveProduct ---

func TestRemoveProduct_RemovesEntry(t *testing.T) {
	store := &mockStore{loaded: Cart{entry(3, 2), entry(9, 1)}}
	e := newTestEngine(t, store, newTestCatalog(), &recordNotifier{})

	require.NoError(t, e.RemoveProduct(context.Background(), 9))

	items := e.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, 2, items[0].Amount)
	require.Len(t, store.saved, 1)
}

func TestRemoveProduct_NotInCart(t *testing.T) {
	store := &mockStore{loaded: Cart{entry(3, 2)}}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, newTestCatalog(), notes)

	err := e.RemoveProduct(context.Background(), 9)

	var missingErr *NotInCartError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, Cart{entry(3, 2)}, e.Items())
	assert.Empty(t, store.saved)
	require.Len(t, notes.notes, 1)
	assert.Equal(t, ReasonNotFound, notes.notes[0].Reason)
}

// --- UpdateProductAmount ---

func TestUpdateProductAmount_SetsExactAmount(t *testing.T) {
	store := &mockStore{loaded: Cart{entry(3, 2), entry(9, 1)}}
	e := newTestEngine(t, store, newTestCatalog(), &recordNotifier{})

	require.NoError(t, e.UpdateProductAmount(context.Background(), 3, 4))

	items := e.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, 4, items[0].Amount)
	assert.Equal(t, int64(9), items[1].ID)
	assert.Equal(t, 1, items[1].Amount)
}

func TestUpdateProductAmount_NotInCart(t *testing.T) {
	store := &mockStore{}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, newTestCatalog(), notes)

	err := e.UpdateProductAmount(context.Background(), 3, 1)

	var missingErr *NotInCartError
	require.ErrorAs(t, err, &missingErr)
	require.Len(t, notes.notes, 1)
	assert.Equal(t, ReasonNotFound, notes.notes[0].Reason)
}

func TestUpdateProductAmount_OutOfStock(t *testing.T) {
	store := &mockStore{loaded: Cart{entry(7, 1)}}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, newTestCatalog(), notes)

	err := e.UpdateProductAmount(context.Background(), 7, 6)

	var oosErr *OutOfStockError
	require.ErrorAs(t, err, &oosErr)
	assert.Equal(t, Cart{entry(7, 1)}, e.Items())
	require.Len(t, notes.notes, 1)
	assert.Equal(t, ReasonOutOfStock, notes.notes[0].Reason)
}

func TestUpdateProductAmount_NonPositiveAmount(t *testing.T) {
	cat := newTestCatalog()
	store := &mockStore{loaded: Cart{entry(3, 2)}}
	notes := &recordNotifier{}
	e := newTestEngine(t, store, cat, notes)

	err := e.UpdateProductAmount(context.Background(), 3, 0)

	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, Cart{entry(3, 2)}, e.Items())
	require.Len(t, notes.notes, 1)
	assert.Equal(t, ReasonInvalidAmount, notes.notes[0].Reason)
	// The invalid amount must be rejected before any stock lookup.
	assert.Zero(t, cat.stockCalls)
}

// --- Clear ---

func TestClear_EmptiesCart(t *testing.T) {
	store := &mockStore{loaded: Cart{entry(3, 2), entry(9, 1)}}
	e := newTestEngine(t, store, newTestCatalog(), &recordNotifier{})

	require.NoError(t, e.Clear(context.Background()))

	assert.Empty(t, e.Items())
	require.Len(t, store.saved, 1)
	assert.Empty(t, store.saved[0])
}

// --- Engine lifecycle ---

func TestNewEngine_LoadsPersistedCart(t *testing.T) {
	store := &mockStore{loaded: Cart{entry(3, 2), entry(9, 1)}}
	e := newTestEngine(t, store, newTestCatalog(), &recordNotifier{})

	items := e.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, int64(9), items[1].ID)
}

func TestNewEngine_StoreUnreachable(t *testing.T) {
	store := &mockStore{loadErr: errors.New("connection refused")}

	_, err := NewEngine(context.Background(), store, newTestCatalog(), &recordNotifier{}, zap.NewNop())
	require.Error(t, err)
}

func TestSubscribe_PublishesCommittedSnapshots(t *testing.T) {
	store := &mockStore{}
	e := newTestEngine(t, store, newTestCatalog(), &recordNotifier{})

	var published []Cart
	e.Subscribe(func(c Cart) { published = append(published, c) })

	require.NoError(t, e.AddProduct(context.Background(), 7))
	require.NoError(t, e.AddProduct(context.Background(), 3))
	_ = e.AddProduct(context.Background(), 404) // fails, must not publish

	require.Len(t, published, 2)
	assert.Len(t, published[0], 1)
	assert.Len(t, published[1], 2)
}

func TestItems_ReturnsCopy(t *testing.T) {
	store := &mockStore{loaded: Cart{entry(3, 2)}}
	e := newTestEngine(t, store, newTestCatalog(), &recordNotifier{})

	items := e.Items()
	items[0].Amount = 99

	assert.Equal(t, 2, e.Items()[0].Amount)
}
