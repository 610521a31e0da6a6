package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/shopcart/internal/domain/catalog"
)

// User-facing messages, one per operation outcome the shopper can act on.
const (
	msgOutOfStock     = "requested quantity is out of stock"
	msgProductMissing = "product is not available"
	msgNotInCart      = "product is not in the cart"
	msgInvalidAmount  = "amount must be at least 1"
	msgAddFailed      = "could not add product to cart"
	msgRemoveFailed   = "could not remove product from cart"
	msgUpdateFailed   = "could not update product amount"
	msgClearFailed    = "could not empty the cart"
)

// Observer receives the committed snapshot after every successful mutation.
// The snapshot is a copy; observers must treat it as read-only and must not
// call back into the engine from the callback.
type Observer func(Cart)

// Engine owns the authoritative cart state for one shopper session. Every
// mutation follows read-validate-commit: the full next snapshot is computed
// and persisted before it replaces the current one, so neither observers
// nor readers ever see a partially applied change. Mutations are serialized
// by a mutex; a failure of any kind leaves the cart untouched.
type Engine struct {
	store   Store
	catalog catalog.Client
	notify  Notifier
	lg      *zap.Logger

	mu        sync.Mutex
	cart      Cart
	observers []Observer
}

// NewEngine loads the previously persisted cart (an absent or corrupt
// snapshot yields an empty one) and returns an engine ready for mutations.
// It fails only when the store itself is unreachable.
func NewEngine(ctx context.Context, store Store, cat catalog.Client, notify Notifier, lg *zap.Logger) (*Engine, error) {
	c, err := store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	return &Engine{
		store:   store,
		catalog: cat,
		notify:  notify,
		lg:      lg,
		cart:    c,
	}, nil
}

// Items returns a copy of the current cart snapshot.
func (e *Engine) Items() Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.clone()
}

// Subscribe registers an observer for committed snapshots. Must be called
// before the engine is shared between goroutines.
func (e *Engine) Subscribe(fn Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// AddProduct puts one unit of the product into the cart. A product not yet
// in the cart is fetched from the catalog and appended with amount 1; a
// product already present has its amount incremented after a stock check.
// On any failure the cart is unchanged and the shopper is notified.
func (e *Engine) AddProduct(ctx context.Context, productID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.cart.index(productID)
	if !ok {
		p, err := e.catalog.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				e.reject(ctx, ReasonNotFound, msgProductMissing)
				return &NotInCatalogError{ProductID: productID}
			}
			return e.fail(ctx, msgAddFailed, errors.Wrapf(err, "fetch product %d", productID))
		}

		next := e.cart.clone()
		next = append(next, Product{
			ID:     p.ID,
			Title:  p.Title,
			Price:  p.Price,
			Image:  p.Image,
			Amount: 1,
		})
		return e.commit(ctx, next, msgAddFailed)
	}

	stock, err := e.catalog.GetStock(ctx, productID)
	if err != nil {
		// A missing stock record is indistinguishable from an unreachable
		// catalog from the shopper's point of view: the add simply fails.
		return e.fail(ctx, msgAddFailed, errors.Wrapf(err, "fetch stock %d", productID))
	}

	current := e.cart[idx].Amount
	if current+1 > stock.Amount {
		e.reject(ctx, ReasonOutOfStock, msgOutOfStock)
		return &OutOfStockError{ProductID: productID, Requested: current + 1, Available: stock.Amount}
	}

	next := e.cart.clone()
	next[idx].Amount++
	return e.commit(ctx, next, msgAddFailed)
}

// RemoveProduct deletes the entry with the given id, preserving the order
// of the remaining entries. No network call is made.
func (e *Engine) RemoveProduct(ctx context.Context, productID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.cart.index(productID)
	if !ok {
		e.reject(ctx, ReasonNotFound, msgNotInCart)
		return &NotInCartError{ProductID: productID}
	}

	next := make(Cart, 0, len(e.cart)-1)
	next = append(next, e.cart[:idx]...)
	next = append(next, e.cart[idx+1:]...)
	return e.commit(ctx, next, msgRemoveFailed)
}

// UpdateProductAmount sets the entry's amount to exactly amount, keeping
// its position. A non-positive amount is rejected before any network call,
// so an invalid request costs no stock lookup.
func (e *Engine) UpdateProductAmount(ctx context.Context, productID int64, amount int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.cart.index(productID)
	if !ok {
		e.reject(ctx, ReasonNotFound, msgNotInCart)
		return &NotInCartError{ProductID: productID}
	}

	if amount <= 0 {
		e.reject(ctx, ReasonInvalidAmount, msgInvalidAmount)
		return ErrInvalidAmount
	}

	stock, err := e.catalog.GetStock(ctx, productID)
	if err != nil {
		return e.fail(ctx, msgUpdateFailed, errors.Wrapf(err, "fetch stock %d", productID))
	}
	if amount > stock.Amount {
		e.reject(ctx, ReasonOutOfStock, msgOutOfStock)
		return &OutOfStockError{ProductID: productID, Requested: amount, Available: stock.Amount}
	}

	next := e.cart.clone()
	next[idx].Amount = amount
	return e.commit(ctx, next, msgUpdateFailed)
}

// Clear empties the cart.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.commit(ctx, Cart{}, msgClearFailed)
}

// commit persists the snapshot, swaps it in, and publishes it to observers.
// Called with e.mu held. The in-memory cart is only replaced after the
// durable write succeeds, so a store failure leaves no divergence between
// the two.
func (e *Engine) commit(ctx context.Context, next Cart, failMsg string) error {
	if err := e.store.Save(ctx, next); err != nil {
		return e.fail(ctx, failMsg, errors.Wrap(err, "save cart"))
	}

	e.cart = next
	snapshot := next.clone()
	for _, fn := range e.observers {
		fn(snapshot)
	}
	return nil
}

// reject reports an expected validation failure. The cart stays untouched.
func (e *Engine) reject(ctx context.Context, reason Reason, msg string) {
	e.notify.Notify(ctx, Notification{Reason: reason, Message: msg})
}

// fail reports an unexpected failure, logs the cause, and returns it.
func (e *Engine) fail(ctx context.Context, msg string, err error) error {
	e.lg.Error("cart operation failed", zap.Error(err))
	e.notify.Notify(ctx, Notification{Reason: ReasonFailed, Message: msg})
	return err
}
