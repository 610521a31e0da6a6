// Command catalog-stub serves a static product catalog for local
// development and integration tests. It answers the same routes the cart
// server expects from the real catalog service: /products, /products/{id}
// and /stock/{id}, all read from a JSON fixture file (optionally
// gzip-compressed).
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
)

type product struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

type stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type fixture struct {
	Products []product `json:"products"`
	Stock    []stock   `json:"stock"`
}

func main() {
	var (
		addr        string
		fixturePath string
	)

	flag.StringVar(&addr, "addr", "0.0.0.0:3333", "listen address")
	flag.StringVar(&fixturePath, "fixture", "db.json", "catalog fixture file (.json or .json.gz)")
	flag.Parse()

	fx, err := loadFixture(fixturePath)
	if err != nil {
		slog.Error("load fixture failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog stub listening",
		slog.String("addr", addr),
		slog.Int("products", len(fx.Products)),
		slog.Int("stock", len(fx.Stock)),
	)

	if err := http.ListenAndServe(addr, newHandler(fx)); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadFixture reads and parses the fixture file, transparently
// decompressing files with a .gz suffix.
func loadFixture(path string) (*fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var fx fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &fx, nil
}

func newHandler(fx *fixture) http.Handler {
	products := make(map[int64]product, len(fx.Products))
	for _, p := range fx.Products {
		products[p.ID] = p
	}
	stocks := make(map[int64]stock, len(fx.Stock))
	for _, s := range fx.Stock {
		stocks[s.ID] = s
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, fx.Products)
	})
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
			return
		}
		p, ok := products[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, p)
	})
	mux.HandleFunc("GET /stock/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
			return
		}
		s, ok := stocks[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, s)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
