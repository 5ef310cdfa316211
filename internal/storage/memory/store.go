// Package memory provides an in-memory coupon store. It keeps nothing across
// runs and is meant for tests, demos and the `--store memory` backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/storage"
)

// Store implements storage.CouponStore over a map.
type Store struct {
	mu      sync.RWMutex
	coupons map[string]*coupon.Coupon

	latency  time.Duration
	failNext error
	now      func() time.Time
}

var _ storage.CouponStore = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithLatency delays every call, simulating a remote service. The delay is
// cut short when the context is cancelled.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		s.latency = d
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		coupons: make(map[string]*coupon.Coupon),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNext makes the next Save or Publish return err without storing anything.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Save stores c with the given status.
func (s *Store) Save(ctx context.Context, c *coupon.Coupon, status coupon.Status) (*coupon.Coupon, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.put(c, status)
}

// Publish validates c and stores it as live.
func (s *Store) Publish(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, coupon.NewValidationError("coupon", "coupon is required")
	}
	if err := storage.CheckPublishable(c); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.put(c, coupon.StatusLive)
}

// put writes a copy of c. s.mu must be held.
func (s *Store) put(c *coupon.Coupon, status coupon.Status) (*coupon.Coupon, error) {
	if err := s.failNext; err != nil {
		s.failNext = nil
		return nil, err
	}

	var existing *coupon.Coupon
	if c != nil && c.ID != "" {
		existing = s.coupons[c.ID]
	}
	out, err := storage.Prepare(c, existing, status, s.now())
	if err != nil {
		return nil, err
	}
	if out.Code != "" {
		for id, other := range s.coupons {
			if id != out.ID && other.Code == out.Code {
				return nil, coupon.NewConflictError(out.ID, "coupon code "+out.Code+" is already in use")
			}
		}
	}

	s.coupons[out.ID] = out
	return out.Clone(), nil
}

// Get returns a copy of the coupon with the given id.
func (s *Store) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.coupons[id]
	if !ok {
		return nil, storage.NotFound(id)
	}
	return c.Clone(), nil
}

// List returns copies of every coupon, most recently updated first.
func (s *Store) List(ctx context.Context) ([]*coupon.Coupon, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]*coupon.Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		out = append(out, c.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
