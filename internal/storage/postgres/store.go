// Package postgres persists the cart snapshot in a PostgreSQL table keyed
// by the store's namespaced key.
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/shopcart/db"
	"github.com/xenking/shopcart/internal/domain/cart"
)

const (
	saveSnapshotSQL = `INSERT INTO cart_snapshots (key, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()`

	loadSnapshotSQL = `SELECT snapshot FROM cart_snapshots WHERE key = $1`
)

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

var _ cart.Store = (*Store)(nil)

// Store implements cart.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	key  string
	lg   *zap.Logger
}

// NewStore returns a Store that persists the snapshot under the given key.
func NewStore(pool *pgxpool.Pool, key string, lg *zap.Logger) *Store {
	return &Store{pool: pool, key: key, lg: lg}
}

// Save upserts the serialized snapshot.
func (s *Store) Save(ctx context.Context, c cart.Cart) error {
	if _, err := s.pool.Exec(ctx, saveSnapshotSQL, s.key, cart.EncodeSnapshot(c)); err != nil {
		return errors.Wrapf(err, "upsert snapshot %s", s.key)
	}
	return nil
}

// Load returns the persisted cart. A missing row or an undecodable payload
// yields an empty cart.
func (s *Store) Load(ctx context.Context) (cart.Cart, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, loadSnapshotSQL, s.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return cart.Cart{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select snapshot %s", s.key)
	}

	c, err := cart.DecodeSnapshot(data)
	if err != nil {
		s.lg.Warn("discarding unreadable cart snapshot", zap.String("key", s.key), zap.Error(err))
		return cart.Cart{}, nil
	}
	return c, nil
}
