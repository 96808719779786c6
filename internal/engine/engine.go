// Package engine wires the rating pipeline end to end: filter games,
// blend talent priors, weight, build the design matrix, ridge-solve,
// and validate. A solve is a pure function of its input snapshot and
// configuration; the engine holds no state between invocations.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gridironlab/powerrank/internal/config"
	"github.com/gridironlab/powerrank/internal/prior"
	"github.com/gridironlab/powerrank/internal/ratings"
	"github.com/gridironlab/powerrank/internal/solver"
	"github.com/gridironlab/powerrank/internal/telemetry"
	"github.com/gridironlab/powerrank/internal/validate"
	"github.com/gridironlab/powerrank/internal/weighting"
)

// Input is the in-memory snapshot one solve consumes. The engine reads
// it and never mutates it; concurrent solves must each hold their own
// snapshot.
type Input struct {
	Games  []ratings.GameRecord
	Talent []ratings.TalentComposite

	// Priors, when non-nil, bypasses the talent blender with
	// pre-blended zero-centered priors (every key is treated as
	// observed).
	Priors map[string]float64

	// WeightOverride, when non-nil, replaces recency decay with an
	// explicit per-included-game weight column.
	WeightOverride []float64
}

// Diagnostics describes one solve run for logging, artifacts, and the
// rating library.
type Diagnostics struct {
	RunID      string `json:"run_id"`
	Season     int    `json:"season"`
	Week       int    `json:"week"`
	ConfigHash string `json:"config_hash"`

	GamesIncluded  int `json:"games_included"`
	TeamsRated     int `json:"teams_rated"`
	PriorOnlyTeams int `json:"prior_only_teams"`

	LambdaUsed        float64 `json:"lambda_used"`
	LambdaRetries     int     `json:"lambda_retries"`
	ConditionEstimate float64 `json:"condition_estimate"`
	HFA               float64 `json:"hfa"`
	HFAClamped        bool    `json:"hfa_clamped"`
	HFAEstimated      bool    `json:"hfa_estimated"`
	RatingsSum        float64 `json:"ratings_sum"`

	SolvedAt time.Time     `json:"solved_at"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Result is the output of one successful solve. Report may carry
// warnings; a warn-level result is usable but tagged degraded.
type Result struct {
	Ratings     []ratings.RatingResult `json:"ratings"`
	Report      *validate.Report       `json:"report"`
	Diagnostics Diagnostics            `json:"diagnostics"`
}

// Degraded reports whether the solve passed with warnings.
func (r *Result) Degraded() bool { return r.Report.Degraded() }

// Engine runs solves under one fixed configuration.
type Engine struct {
	cfg       config.SolveConfig
	collector *telemetry.Collector

	// now is injectable so rating timestamps are controllable in
	// tests; the solved numbers themselves never depend on it.
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCollector attaches Prometheus telemetry.
func WithCollector(c *telemetry.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an Engine for the given configuration. The configuration
// is re-validated so an Engine can never exist around a bad one.
func New(cfg config.SolveConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Solve runs the full pipeline on the input snapshot. Configuration,
// data, and solver errors propagate immediately; a hard validation
// failure also returns an error alongside the report. Warn-level
// validation outcomes return a usable result.
func (e *Engine) Solve(in Input) (*Result, error) {
	start := e.now()

	res, err := e.solve(in)

	elapsed := e.now().Sub(start)
	if e.collector != nil {
		outcome := "pass"
		var warnChecks []string
		teams := 0
		if err != nil {
			outcome = "error"
		} else {
			teams = len(res.Ratings)
			if res.Report.Degraded() {
				outcome = "degraded"
			}
			for _, f := range res.Report.Warnings() {
				warnChecks = append(warnChecks, f.Check)
			}
		}
		retries := 0
		if res != nil {
			retries = res.Diagnostics.LambdaRetries
		}
		e.collector.ObserveSolve(outcome, elapsed, retries, teams, warnChecks)
	}
	if res != nil {
		res.Diagnostics.Elapsed = elapsed
	}
	return res, err
}

func (e *Engine) solve(in Input) (*Result, error) {
	cfg := e.cfg

	games, err := ratings.FilterGames(in.Games, cfg.Season, cfg.Week)
	if err != nil {
		return nil, err
	}

	gamesPlayed := ratings.GamesPlayed(games)
	roster := ratings.GameTeams(games)

	// Teams with zero games enter the roster only when priors are
	// enabled; without priors there is nothing to rate them on and
	// they are excluded entirely.
	var (
		priors   map[string]float64
		observed map[string]bool
	)
	if cfg.PriorsEnabled {
		if in.Priors != nil {
			priors = in.Priors
			observed = make(map[string]bool, len(priors))
			for t := range priors {
				observed[t] = true
				if _, played := gamesPlayed[t]; !played {
					roster = append(roster, t)
				}
			}
		} else {
			for _, tc := range in.Talent {
				if _, played := gamesPlayed[tc.Team]; !played {
					roster = append(roster, tc.Team)
				}
			}
			blender := prior.NewBlender(cfg.MinGamesForPriorTrust)
			priors, observed = blender.Blend(roster, in.Talent, gamesPlayed)
		}
	}

	index := ratings.NewTeamIndex(roster)

	wEngine := weighting.NewEngine(cfg.RecencyHalflifeDays)
	wEngine.Override = in.WeightOverride
	weights, err := wEngine.Weights(games)
	if err != nil {
		return nil, err
	}

	builderIn := solver.BuilderInput{
		Index:             index,
		Games:             games,
		Weights:           weights,
		HomeFieldOverride: cfg.HomeFieldOverride,
	}
	if cfg.PriorsEnabled {
		builderIn.Priors = priors
		builderIn.ObservedPrior = observed
		builderIn.PriorStrength = cfg.PriorStrength
	}

	sys, err := solver.Build(builderIn)
	if err != nil {
		return nil, err
	}

	sol, err := solver.NewRidge(cfg).Solve(sys)
	if err != nil {
		return nil, err
	}

	validator := validate.NewValidator(cfg)
	report, err := validator.Validate(sys, sol)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Ratings:     e.assemble(index, sol, priors, gamesPlayed),
		Report:      report,
		Diagnostics: e.diagnostics(sol, report, len(games), index.Len(), countPriorOnly(index, gamesPlayed)),
	}

	if report.Status == validate.StatusFail {
		return result, &ratings.SolverError{
			Stage:  "validation",
			Reason: "hard invariant violated, see report",
		}
	}

	for _, f := range report.Warnings() {
		log.Warn().
			Int("season", cfg.Season).
			Int("week", cfg.Week).
			Str("check", f.Check).
			Float64("value", f.Value).
			Msg("solve degraded: " + f.Message)
	}

	return result, nil
}

// assemble turns the solved vector into rating rows, one per indexed
// team in column order. A team with zero games is rated purely by its
// prior: its row carries the exact blended prior value and the
// rated_by_priors_only flag, since the solved coefficient for such a
// team is the prior filtered through regularization noise.
func (e *Engine) assemble(index *ratings.TeamIndex, sol *solver.Solution, priors map[string]float64, gamesPlayed map[string]int) []ratings.RatingResult {
	now := e.now()
	out := make([]ratings.RatingResult, index.Len())
	for i := 0; i < index.Len(); i++ {
		team := index.Team(i)
		played := gamesPlayed[team]

		rating := sol.TeamRatings[i]
		priorsOnly := false
		if played == 0 {
			rating = priors[team]
			priorsOnly = true
		}

		out[i] = ratings.RatingResult{
			Team:              team,
			Season:            e.cfg.Season,
			Week:              e.cfg.Week,
			Rating:            rating,
			GamesPlayed:       played,
			TalentPrior:       priors[team],
			HFA:               sol.HFA,
			RatingsSum:        sol.RatingsSum,
			RatedByPriorsOnly: priorsOnly,
			SolverVersion:     ratings.SolverVersion,
			LastUpdated:       now,
		}
	}
	return out
}

func (e *Engine) diagnostics(sol *solver.Solution, report *validate.Report, games, teams, priorOnly int) Diagnostics {
	return Diagnostics{
		RunID:             uuid.NewString(),
		Season:            e.cfg.Season,
		Week:              e.cfg.Week,
		ConfigHash:        e.cfg.Hash(),
		GamesIncluded:     games,
		TeamsRated:        teams,
		PriorOnlyTeams:    priorOnly,
		LambdaUsed:        sol.LambdaUsed,
		LambdaRetries:     sol.LambdaRetries,
		ConditionEstimate: sol.ConditionEstimate,
		HFA:               sol.HFA,
		HFAClamped:        sol.HFAClamped,
		HFAEstimated:      sol.HFAEstimated,
		RatingsSum:        sol.RatingsSum,
		SolvedAt:          e.now(),
	}
}

func countPriorOnly(index *ratings.TeamIndex, gamesPlayed map[string]int) int {
	n := 0
	for _, t := range index.Teams() {
		if gamesPlayed[t] == 0 {
			n++
		}
	}
	return n
}
