package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// listProducts proxies the catalog list for the storefront's product page.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.lg.Error("list products failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, p := range products {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(p.ID)
		e.FieldStart("title")
		e.Str(p.Title)
		e.FieldStart("price")
		e.Float64(p.Price.InexactFloat64())
		e.FieldStart("image")
		e.Str(p.Image)
		e.ObjEnd()
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}
