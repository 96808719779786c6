// Package library persists solved rating tables keyed by
// (season, week, config hash). The library is the only stateful piece
// of the system; it is injected into callers, never reached as an
// ambient singleton, and keys are explicitly invalidated when new
// games land for a (season, week).
package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gridironlab/powerrank/internal/engine"
	"github.com/gridironlab/powerrank/internal/ratings"
)

// ErrNotFound indicates no entry exists for the requested key.
var ErrNotFound = errors.New("library: entry not found")

// Key identifies one solved rating table. Two solves of the same
// (season, week) under different configuration hash to different keys
// and never collide.
type Key struct {
	Season     int    `json:"season" db:"season"`
	Week       int    `json:"week" db:"week"`
	ConfigHash string `json:"config_hash" db:"config_hash"`
}

// String renders the key in its canonical storage form.
func (k Key) String() string {
	return fmt.Sprintf("%d:%d:%s", k.Season, k.Week, k.ConfigHash)
}

// Entry is one stored rating table with its solve diagnostics.
type Entry struct {
	Key         Key                    `json:"key"`
	Ratings     []ratings.RatingResult `json:"ratings"`
	Diagnostics engine.Diagnostics     `json:"diagnostics"`
	Degraded    bool                   `json:"degraded"`
	StoredAt    time.Time              `json:"stored_at"`
}

// Store is the rating library contract. Put must be atomic with
// respect to concurrent Gets: a reader never observes a partially
// written table. Invalidate removes every entry for the (season, week)
// regardless of configuration hash.
type Store interface {
	Get(ctx context.Context, key Key) (*Entry, error)
	Put(ctx context.Context, entry Entry) error
	Invalidate(ctx context.Context, season, week int) error
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*BreakerStore)(nil)
)

// NewEntry builds an Entry from a solve result.
func NewEntry(key Key, res *engine.Result, storedAt time.Time) Entry {
	return Entry{
		Key:         key,
		Ratings:     res.Ratings,
		Diagnostics: res.Diagnostics,
		Degraded:    res.Degraded(),
		StoredAt:    storedAt,
	}
}
