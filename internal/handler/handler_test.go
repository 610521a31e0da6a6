package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/shopcart/internal/domain/cart"
	"github.com/xenking/shopcart/internal/domain/catalog"
	"github.com/xenking/shopcart/internal/storage/memory"
)

type stubCatalog struct {
	products map[int64]catalog.Product
	stock    map[int64]int
	listErr  error
}

func (s *stubCatalog) ListProducts(_ context.Context) ([]catalog.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (s *stubCatalog) GetStock(_ context.Context, id int64) (*catalog.Stock, error) {
	amount, ok := s.stock[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &catalog.Stock{ID: id, Amount: amount}, nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, cart.Notification) {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cat := &stubCatalog{
		products: map[int64]catalog.Product{
			7: {ID: 7, Title: "Walking Shoe", Price: decimal.RequireFromString("179.90"), Image: "walking.jpg"},
		},
		stock: map[int64]int{7: 2},
	}

	engine, err := cart.NewEngine(context.Background(), memory.New(), cat, nopNotifier{}, zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(New(engine, cat, zap.NewNop()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// cartBody decodes the {"items": [...], "total": n} response shape.
type cartBody struct {
	items []struct {
		id     int64
		amount int
	}
	total float64
}

func decodeCartBody(t *testing.T, resp *http.Response) cartBody {
	t.Helper()
	var out cartBody
	d := jx.Decode(resp.Body, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item struct {
					id     int64
					amount int
				}
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "id":
						v, err := d.Int64()
						item.id = v
						return err
					case "amount":
						v, err := d.Int()
						item.amount = v
						return err
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				out.items = append(out.items, item)
				return nil
			})
		case "total":
			v, err := d.Float64()
			out.total = v
			return err
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	return out
}

func TestGetCart_Empty(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeCartBody(t, resp)
	assert.Empty(t, body.items)
	assert.Zero(t, body.total)
}

func TestAddItem(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/cart/items/7", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeCartBody(t, resp)
	require.Len(t, body.items, 1)
	assert.Equal(t, int64(7), body.items[0].id)
	assert.Equal(t, 1, body.items[0].amount)
	assert.InDelta(t, 179.90, body.total, 0.001)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/cart/items/404", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddItem_OutOfStock(t *testing.T) {
	srv := newTestServer(t)

	// Stock for product 7 is 2; the third add must be rejected.
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/cart/items/7", "").StatusCode)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/cart/items/7", "").StatusCode)
	resp := do(t, srv, http.MethodPost, "/api/cart/items/7", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeCartBody(t, do(t, srv, http.MethodGet, "/api/cart", ""))
	require.Len(t, body.items, 1)
	assert.Equal(t, 2, body.items[0].amount)
}

func TestAddItem_BadProductID(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/cart/items/sneaker", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateItem(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/cart/items/7", "").StatusCode)
	resp := do(t, srv, http.MethodPut, "/api/cart/items/7", `{"amount":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeCartBody(t, resp)
	require.Len(t, body.items, 1)
	assert.Equal(t, 2, body.items[0].amount)
}

func TestUpdateItem_NotInCart(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPut, "/api/cart/items/7", `{"amount":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateItem_InvalidAmount(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/cart/items/7", "").StatusCode)
	resp := do(t, srv, http.MethodPut, "/api/cart/items/7", `{"amount":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpdateItem_OutOfStock(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/cart/items/7", "").StatusCode)
	resp := do(t, srv, http.MethodPut, "/api/cart/items/7", `{"amount":3}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateItem_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/cart/items/7", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/api/cart/items/7", `{"amount":`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/api/cart/items/7", `{}`).StatusCode)
}

func TestRemoveItem(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/cart/items/7", "").StatusCode)
	resp := do(t, srv, http.MethodDelete, "/api/cart/items/7", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	body := decodeCartBody(t, do(t, srv, http.MethodGet, "/api/cart", ""))
	assert.Empty(t, body.items)
}

func TestRemoveItem_NotInCart(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodDelete, "/api/cart/items/7", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClearCart(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/cart/items/7", "").StatusCode)
	resp := do(t, srv, http.MethodDelete, "/api/cart", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	body := decodeCartBody(t, do(t, srv, http.MethodGet, "/api/cart", ""))
	assert.Empty(t, body.items)
}

func TestListProducts(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
