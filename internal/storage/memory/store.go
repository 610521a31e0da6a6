// Package memory keeps the cart snapshot in process memory. It is the
// default backend for local development and the store used by unit tests.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/shopcart/internal/domain/cart"
)

var _ cart.Store = (*Store)(nil)

// Store implements cart.Store in memory. The snapshot is held in its
// serialized form so that save/load behaves exactly like the durable
// backends, corrupt-payload handling included.
type Store struct {
	mu       sync.RWMutex
	snapshot []byte
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Seed replaces the stored payload with raw bytes. Test hook for corrupt
// and pre-populated snapshots.
func (s *Store) Seed(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = data
}

// Save overwrites the stored snapshot.
func (s *Store) Save(_ context.Context, c cart.Cart) error {
	data := cart.EncodeSnapshot(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = data
	return nil
}

// Load returns the stored cart, or an empty cart when nothing was saved or
// the payload cannot be decoded.
func (s *Store) Load(_ context.Context) (cart.Cart, error) {
	s.mu.RLock()
	data := s.snapshot
	s.mu.RUnlock()

	if data == nil {
		return cart.Cart{}, nil
	}
	c, err := cart.DecodeSnapshot(data)
	if err != nil {
		return cart.Cart{}, nil
	}
	return c, nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}
