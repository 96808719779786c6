// Package application drives multi-week solve campaigns: historical
// backfills and weekly refreshes. One bad week must not sink a
// season's backfill, so the driver continues past degraded weeks and
// data defects and aborts only on configuration or solver failures.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/gridironlab/powerrank/internal/config"
	"github.com/gridironlab/powerrank/internal/engine"
	"github.com/gridironlab/powerrank/internal/library"
	"github.com/gridironlab/powerrank/internal/ratings"
	"github.com/gridironlab/powerrank/internal/telemetry"
)

// BatchRequest describes one campaign over a week range of a season.
type BatchRequest struct {
	Season    int
	FirstWeek int
	LastWeek  int

	Snapshot engine.Input

	// ConfigOptions are applied to every week's configuration.
	ConfigOptions []config.Option
}

// WeekOutcome records how one week of the campaign went.
type WeekOutcome struct {
	Week     int
	Result   *engine.Result
	Err      error
	Degraded bool
	Skipped  bool
}

// BatchResult summarizes a campaign.
type BatchResult struct {
	Season   int
	Outcomes []WeekOutcome
	Solved   int
	Degraded int
	Skipped  int
}

// Batch runs solve campaigns against a rating library.
type Batch struct {
	store     library.Store
	collector *telemetry.Collector

	// limiter paces library writes so a long backfill does not
	// saturate a shared backend.
	limiter *rate.Limiter

	now func() time.Time
}

// NewBatch builds a campaign driver. store may be nil for dry runs;
// writesPerSecond <= 0 disables pacing.
func NewBatch(store library.Store, collector *telemetry.Collector, writesPerSecond float64) *Batch {
	var limiter *rate.Limiter
	if writesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(writesPerSecond), 1)
	}
	return &Batch{store: store, collector: collector, limiter: limiter, now: time.Now}
}

// Run solves every week in the request range in order. Data defects in
// one week are logged and skipped; configuration and solver errors
// abort the campaign immediately.
func (b *Batch) Run(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if req.FirstWeek > req.LastWeek {
		return nil, ratings.NewConfigurationError("week_range",
			fmt.Sprintf("first week %d after last week %d", req.FirstWeek, req.LastWeek))
	}

	out := &BatchResult{Season: req.Season}
	for week := req.FirstWeek; week <= req.LastWeek; week++ {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("batch aborted at week %d: %w", week, err)
		}

		outcome := b.solveWeek(ctx, req, week)
		out.Outcomes = append(out.Outcomes, outcome)

		switch {
		case outcome.Err == nil:
			out.Solved++
			if outcome.Degraded {
				out.Degraded++
			}
		case errors.Is(outcome.Err, ratings.ErrData):
			out.Skipped++
			log.Error().
				Int("season", req.Season).
				Int("week", week).
				Err(outcome.Err).
				Msg("week skipped on data error")
		default:
			// Configuration and solver errors poison the whole
			// campaign; later weeks would fail the same way or hide a
			// construction bug.
			return out, fmt.Errorf("batch aborted at week %d: %w", week, outcome.Err)
		}
	}
	return out, nil
}

func (b *Batch) solveWeek(ctx context.Context, req BatchRequest, week int) WeekOutcome {
	cfg, err := config.New(req.Season, week, req.ConfigOptions...)
	if err != nil {
		return WeekOutcome{Week: week, Err: err}
	}

	var opts []engine.Option
	if b.collector != nil {
		opts = append(opts, engine.WithCollector(b.collector))
	}
	eng, err := engine.New(cfg, opts...)
	if err != nil {
		return WeekOutcome{Week: week, Err: err}
	}

	res, err := eng.Solve(req.Snapshot)
	if err != nil {
		return WeekOutcome{Week: week, Result: res, Err: err, Skipped: errors.Is(err, ratings.ErrData)}
	}

	if res.Degraded() {
		log.Warn().
			Int("season", req.Season).
			Int("week", week).
			Int("warnings", len(res.Report.Warnings())).
			Msg("week solved degraded")
	}

	if b.store != nil {
		if err := b.persist(ctx, cfg, res); err != nil {
			// Storage trouble is not a solve failure; the result is
			// still returned to the caller.
			log.Error().
				Int("season", req.Season).
				Int("week", week).
				Err(err).
				Msg("failed to persist rating set")
		}
	}

	return WeekOutcome{Week: week, Result: res, Degraded: res.Degraded()}
}

func (b *Batch) persist(ctx context.Context, cfg config.SolveConfig, res *engine.Result) error {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("write pacing interrupted: %w", err)
		}
	}
	key := library.Key{Season: cfg.Season, Week: cfg.Week, ConfigHash: cfg.Hash()}
	return b.store.Put(ctx, library.NewEntry(key, res, b.now()))
}

// Refresh invalidates a (season, week) in the library and re-solves
// it. Call it when new games for that key are ingested.
func (b *Batch) Refresh(ctx context.Context, req BatchRequest, week int) (*engine.Result, error) {
	if b.store != nil {
		if err := b.store.Invalidate(ctx, req.Season, week); err != nil {
			return nil, fmt.Errorf("failed to invalidate week %d: %w", week, err)
		}
	}
	outcome := b.solveWeek(ctx, req, week)
	return outcome.Result, outcome.Err
}
