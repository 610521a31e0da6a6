package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the catalog has no product or stock record
// for the requested id. It is distinct from transport failures, which are
// returned as wrapped errors.
var ErrNotFound = errors.New("product not found")

// Product holds the catalog's view of an item. It carries no quantity; the
// cart owns that.
type Product struct {
	ID    int64
	Title string
	Price decimal.Decimal
	Image string
}

// Stock is the maximum purchasable quantity of a product at the instant of
// the lookup. It is a point-in-time snapshot, not a subscription.
type Stock struct {
	ID     int64
	Amount int
}

// Client provides read-only access to the external catalog service.
type Client interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	GetStock(ctx context.Context, id int64) (*Stock, error)
}
