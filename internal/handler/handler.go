// Package handler exposes the cart engine's operations over HTTP for the
// storefront frontend.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/shopcart/internal/domain/cart"
	"github.com/xenking/shopcart/internal/domain/catalog"
)

// Handler routes cart and catalog requests to the engine and catalog client.
type Handler struct {
	engine  *cart.Engine
	catalog catalog.Client
	lg      *zap.Logger
}

// New constructs a Handler.
func New(engine *cart.Engine, cat catalog.Client, lg *zap.Logger) *Handler {
	return &Handler{engine: engine, catalog: cat, lg: lg}
}

// Routes returns the API route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/cart/items/{productID}", h.addItem)
	mux.HandleFunc("PUT /api/cart/items/{productID}", h.updateItem)
	mux.HandleFunc("DELETE /api/cart/items/{productID}", h.removeItem)
	mux.HandleFunc("GET /api/products", h.listProducts)
	return mux
}

// productID parses the path parameter; a non-integer id is a client error.
func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("productID"), 10, 64)
	return id, err == nil
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, &e)
}
