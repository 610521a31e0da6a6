// Package health provides Kubernetes-style liveness and readiness probes.
// Registered checks run periodically in the background; the HTTP endpoints
// only read the latest recorded results.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// check holds one registered probe and its latest result.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	c.lastErr.Store(&err)
	c.healthy.Store(err == nil)
}

func (c *check) status() (string, bool) {
	if c.healthy.Load() {
		return "ok", true
	}
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error(), false
	}
	return "unhealthy", false
}

// Health runs liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New returns a Health in the not-ready state; call SetReady(true) once
// initialization is complete.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe for "is the process functional".
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)
	h.liveness = append(h.liveness, c)
}

// AddReadinessCheck registers a probe for "can the service do work".
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)
	h.readiness = append(h.readiness, c)
}

// SetReady flips the overall readiness gate, independent of check results.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Start runs every registered check once immediately and then on the given
// interval until Stop or context cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	h.mu.Lock()
	ctx, h.cancel = context.WithCancel(ctx)
	checks := make([]*check, 0, len(h.liveness)+len(h.readiness))
	checks = append(checks, h.liveness...)
	checks = append(checks, h.readiness...)
	h.mu.Unlock()

	for _, c := range checks {
		go func(c *check) {
			c.run(ctx)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// Stop terminates the background check goroutines.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// LiveEndpoint serves the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := append([]*check(nil), h.liveness...)
	h.mu.RUnlock()

	writeStatus(w, checks, true)
}

// ReadyEndpoint serves the readiness probe. It fails while SetReady(true)
// has not been called or any readiness check is unhealthy.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := append([]*check(nil), h.readiness...)
	h.mu.RUnlock()

	writeStatus(w, checks, h.ready.Load())
}

func writeStatus(w http.ResponseWriter, checks []*check, gate bool) {
	healthy := gate
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("checks")
	e.ObjStart()
	for _, c := range checks {
		msg, ok := c.status()
		if !ok {
			healthy = false
		}
		e.FieldStart(c.name)
		e.Str(msg)
	}
	e.ObjEnd()
	e.FieldStart("status")
	if healthy {
		e.Str("ok")
	} else {
		e.Str("unavailable")
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_, _ = w.Write(e.Bytes())
}
