// Package redis persists the cart snapshot in Redis under a single
// namespaced key.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/extra/redisotel/v8"
	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/xenking/shopcart/internal/domain/cart"
)

var _ cart.Store = (*Store)(nil)

// Store implements cart.Store backed by Redis.
type Store struct {
	client *goredis.Client
	key    string
	lg     *zap.Logger
}

// New connects to Redis and verifies the connection with a ping. The URL is
// parsed as a redis:// URL first and used as a plain host:port address when
// that fails.
func New(ctx context.Context, redisURL, key string, lg *zap.Logger) (*Store, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		opts = &goredis.Options{
			Addr:         redisURL,
			DialTimeout:  10 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		}
	}

	client := goredis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return &Store{client: client, key: key, lg: lg}, nil
}

// Save overwrites the persisted snapshot.
func (s *Store) Save(ctx context.Context, c cart.Cart) error {
	if err := s.client.Set(ctx, s.key, cart.EncodeSnapshot(c), 0).Err(); err != nil {
		return errors.Wrapf(err, "set %s", s.key)
	}
	return nil
}

// Load returns the persisted cart. A missing key or an undecodable payload
// yields an empty cart.
func (s *Store) Load(ctx context.Context) (cart.Cart, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return cart.Cart{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", s.key)
	}

	c, err := cart.DecodeSnapshot(data)
	if err != nil {
		s.lg.Warn("discarding unreadable cart snapshot", zap.String("key", s.key), zap.Error(err))
		return cart.Cart{}, nil
	}
	return c, nil
}

// Ping reports whether Redis answers. Used as a readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
