// Package weighting computes per-game sample weights for the rating
// solve. The default scheme is exponential recency decay; callers may
// instead supply an explicit weight column that replaces decay
// entirely. The normalization row's dominant weight is set by the
// design matrix builder, never here.
package weighting

import (
	"fmt"
	"math"

	"github.com/gridironlab/powerrank/internal/ratings"
)

// Engine computes the weight vector for one solve window.
type Engine struct {
	// HalflifeDays is the recency decay halflife: a game this many
	// days older than the newest game in the window counts half as
	// much.
	HalflifeDays float64

	// Override, when non-nil, replaces decay with an explicit per-game
	// weight column aligned with the game slice.
	Override []float64
}

// NewEngine returns a decay-based Engine.
func NewEngine(halflifeDays float64) *Engine {
	return &Engine{HalflifeDays: halflifeDays}
}

// Weights returns one weight per game, aligned with games. Decay is
// relative to the most recent game date in the window, so the newest
// game always has weight 1.0.
//
// An all-zero result is a ConfigurationError: a degenerate weight
// vector would make the solve meaningless and must never proceed
// silently.
func (e *Engine) Weights(games []ratings.GameRecord) ([]float64, error) {
	if len(games) == 0 {
		return nil, ratings.NewConfigurationError("games", "no games in solve window")
	}

	if e.Override != nil {
		if len(e.Override) != len(games) {
			return nil, ratings.NewConfigurationError("weight_override",
				fmt.Sprintf("override length %d against %d games", len(e.Override), len(games)))
		}
		w := make([]float64, len(e.Override))
		copy(w, e.Override)
		return w, checkNotDegenerate(w)
	}

	if e.HalflifeDays <= 0 {
		return nil, ratings.NewConfigurationError("recency_halflife_days", "must be positive")
	}

	newest := games[0].Date
	for _, g := range games[1:] {
		if g.Date.After(newest) {
			newest = g.Date
		}
	}

	w := make([]float64, len(games))
	for i, g := range games {
		days := newest.Sub(g.Date).Hours() / 24
		if days < 0 || math.IsNaN(days) {
			days = 0
		}
		w[i] = math.Pow(0.5, days/e.HalflifeDays)
	}
	return w, checkNotDegenerate(w)
}

func checkNotDegenerate(w []float64) error {
	anyPositive := false
	for _, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ratings.NewConfigurationError("weights",
				fmt.Sprintf("non-finite or negative weight %g", v))
		}
		if v > 0 {
			anyPositive = true
		}
	}
	if !anyPositive {
		return ratings.NewConfigurationError("weights", "all game weights resolved to zero")
	}
	return nil
}
