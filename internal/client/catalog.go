// Package client implements the catalog.Client contract against the
// storefront catalog HTTP API.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/shopcart/internal/domain/catalog"
)

// maxBodySize bounds catalog responses; the full product list of a small
// storefront fits comfortably.
const maxBodySize = 4 << 20

var _ catalog.Client = (*Catalog)(nil)

// Catalog is an HTTP client for the external catalog service. Concurrent
// lookups of the same product or stock record are collapsed into a single
// request.
type Catalog struct {
	base string
	http *http.Client
	sf   singleflight.Group
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Catalog) { c.http = hc }
}

// NewCatalog creates a client for the catalog API at baseURL.
func NewCatalog(baseURL string, opts ...Option) (*Catalog, error) {
	if baseURL == "" {
		return nil, errors.New("catalog base URL is required")
	}

	c := &Catalog{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListProducts returns the full catalog.
func (c *Catalog) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	body, err := c.get(ctx, c.base+"/products")
	if err != nil {
		return nil, err
	}

	var products []catalog.Product
	d := jx.DecodeBytes(body)
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode product list")
	}
	return products, nil
}

// GetProduct returns the product with the given id, or catalog.ErrNotFound.
func (c *Catalog) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	v, err, _ := c.sf.Do(fmt.Sprintf("product/%d", id), func() (any, error) {
		body, err := c.get(ctx, fmt.Sprintf("%s/products/%d", c.base, id))
		if err != nil {
			return nil, err
		}
		p, err := decodeProduct(jx.DecodeBytes(body))
		if err != nil {
			return nil, errors.Wrapf(err, "decode product %d", id)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	p := v.(catalog.Product)
	return &p, nil
}

// GetStock returns the stock record for the given id, or catalog.ErrNotFound.
func (c *Catalog) GetStock(ctx context.Context, id int64) (*catalog.Stock, error) {
	v, err, _ := c.sf.Do(fmt.Sprintf("stock/%d", id), func() (any, error) {
		body, err := c.get(ctx, fmt.Sprintf("%s/stock/%d", c.base, id))
		if err != nil {
			return nil, err
		}
		s, err := decodeStock(jx.DecodeBytes(body))
		if err != nil {
			return nil, errors.Wrapf(err, "decode stock %d", id)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}

	s := v.(catalog.Stock)
	return &s, nil
}

// Ping reports whether the catalog endpoint answers at all. Used as a
// readiness check.
func (c *Catalog) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/products", nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "catalog unreachable")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Errorf("catalog returned status %d", resp.StatusCode)
	}
	return nil
}

// get performs a GET and returns the body for a 200, catalog.ErrNotFound
// for a 404, and a wrapped transport error otherwise.
func (c *Catalog) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, catalog.ErrNotFound
	default:
		return nil, errors.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", url)
	}
	return body, nil
}

func decodeProduct(d *jx.Decoder) (catalog.Product, error) {
	var p catalog.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Int64()
			p.ID = v
			return err
		case "title":
			v, err := d.Str()
			p.Title = v
			return err
		case "price":
			num, err := d.Num()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(num.String())
			if err != nil {
				return err
			}
			p.Price = price
			return nil
		case "image":
			v, err := d.Str()
			p.Image = v
			return err
		default:
			return d.Skip()
		}
	})
	return p, err
}

func decodeStock(d *jx.Decoder) (catalog.Stock, error) {
	var s catalog.Stock
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Int64()
			s.ID = v
			return err
		case "amount":
			v, err := d.Int()
			s.Amount = v
			return err
		default:
			return d.Skip()
		}
	})
	return s, err
}
