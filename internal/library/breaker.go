package library

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerStore wraps a remote Store (Postgres, Redis) in a circuit
// breaker so a dead backend fails fast instead of stalling every
// batch solve behind connection timeouts.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps inner with a breaker that opens after
// consecutive failures and probes again after the cooldown.
func NewBreakerStore(name string, inner Store) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("store", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("rating library breaker state change")
		},
	}
	return &BreakerStore{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Get implements Store.
func (s *BreakerStore) Get(ctx context.Context, key Key) (*Entry, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		e, err := s.inner.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			// A miss is a valid answer, not a backend failure.
			return (*Entry)(nil), nil
		}
		return e, err
	})
	if err != nil {
		return nil, err
	}
	entry := out.(*Entry)
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

// Put implements Store.
func (s *BreakerStore) Put(ctx context.Context, entry Entry) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Put(ctx, entry)
	})
	return err
}

// Invalidate implements Store.
func (s *BreakerStore) Invalidate(ctx context.Context, season, week int) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Invalidate(ctx, season, week)
	})
	return err
}

// Close implements Store.
func (s *BreakerStore) Close() error { return s.inner.Close() }
