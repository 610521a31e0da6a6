package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is one cart entry: a catalog item plus the quantity selected by
// the shopper. Amount is at least 1 for any entry present in the cart; an
// entry that would drop to 0 is removed instead.
type Product struct {
	ID     int64
	Title  string
	Price  decimal.Decimal
	Image  string
	Amount int
}

// Cart is the ordered, id-unique sequence of products a shopper has
// selected. Mutations never modify a Cart in place; the engine computes a
// fresh snapshot and swaps it in whole.
type Cart []Product

// index returns the position of the entry with the given product id.
func (c Cart) index(productID int64) (int, bool) {
	for i, p := range c {
		if p.ID == productID {
			return i, true
		}
	}
	return -1, false
}

// clone returns a copy that shares no backing storage with c.
func (c Cart) clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Total returns the sum of price x amount over all entries.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Amount))))
	}
	return total
}

// Store durably persists the serialized cart under a fixed key.
//
// Load returns an empty cart when nothing has been saved yet or when the
// stored payload cannot be decoded; a corrupt snapshot is treated as "no
// prior cart", never as a failure.
type Store interface {
	Save(ctx context.Context, c Cart) error
	Load(ctx context.Context) (Cart, error)
}

// Reason classifies a user-facing notification.
type Reason string

const (
	ReasonNotFound      Reason = "not_found"
	ReasonOutOfStock    Reason = "out_of_stock"
	ReasonInvalidAmount Reason = "invalid_amount"
	ReasonFailed        Reason = "operation_failed"
)

// Notification is a user-facing message about a cart operation.
type Notification struct {
	Reason  Reason
	Message string
}

// Notifier delivers user-facing messages. The engine reports validation
// failures and unexpected errors through it and knows nothing about how
// messages reach the shopper.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
