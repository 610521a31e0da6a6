package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/shopcart/internal/domain/cart"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, http.StatusOK, h.engine.Items())
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "product id must be an integer")
		return
	}

	if err := h.engine.AddProduct(r.Context(), id); err != nil {
		h.writeCartError(w, err)
		return
	}
	h.writeCart(w, http.StatusCreated, h.engine.Items())
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "product id must be an integer")
		return
	}

	amount, err := decodeAmount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object with an integer amount field")
		return
	}

	if err := h.engine.UpdateProductAmount(r.Context(), id, amount); err != nil {
		h.writeCartError(w, err)
		return
	}
	h.writeCart(w, http.StatusOK, h.engine.Items())
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "product id must be an integer")
		return
	}

	if err := h.engine.RemoveProduct(r.Context(), id); err != nil {
		h.writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Clear(r.Context()); err != nil {
		h.writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeCartError maps engine errors to HTTP status codes.
func (h *Handler) writeCartError(w http.ResponseWriter, err error) {
	var (
		notInCatalog *cart.NotInCatalogError
		notInCart    *cart.NotInCartError
		outOfStock   *cart.OutOfStockError
	)

	switch {
	case errors.As(err, &notInCatalog):
		writeError(w, http.StatusNotFound, notInCatalog.Error())
	case errors.As(err, &notInCart):
		writeError(w, http.StatusNotFound, notInCart.Error())
	case errors.As(err, &outOfStock):
		writeError(w, http.StatusConflict, outOfStock.Error())
	case errors.Is(err, cart.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, cart.ErrInvalidAmount.Error())
	default:
		h.lg.Error("cart request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, c cart.Cart) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, p := range c {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(p.ID)
		e.FieldStart("title")
		e.Str(p.Title)
		e.FieldStart("price")
		e.Float64(p.Price.InexactFloat64())
		e.FieldStart("image")
		e.Str(p.Image)
		e.FieldStart("amount")
		e.Int(p.Amount)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Float64(c.Total().InexactFloat64())
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// decodeAmount reads {"amount": n} from the request body.
func decodeAmount(r *http.Request) (int, error) {
	d := jx.Decode(r.Body, 512)
	var (
		amount int
		seen   bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "amount" {
			return d.Skip()
		}
		v, err := d.Int()
		if err != nil {
			return err
		}
		amount = v
		seen = true
		return nil
	}); err != nil {
		return 0, err
	}
	if !seen {
		return 0, errors.New("amount field is required")
	}
	return amount, nil
}
