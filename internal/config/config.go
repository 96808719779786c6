// Package config holds the immutable solve configuration: every knob is
// named, defaulted, and validated at construction so a bad combination
// fails before any matrix is built.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gridironlab/powerrank/internal/ratings"
)

// Default knob values. Documented here rather than scattered through
// call sites so the configuration surface is auditable in one place.
const (
	DefaultLambda               = 0.001
	DefaultPriorStrength        = 2.5
	DefaultHalflifeDays         = 35.0
	DefaultResidualWarnPoints   = 12.0
	DefaultMinGamesForTrust     = 4
	DefaultMaxConditionNumber   = 1e12
	DefaultLambdaEscalation     = 10.0
	DefaultMaxLambdaRetries     = 3
	DefaultMinPredictiveCorr    = 0.5
	NormalizationWeightMultiple = 1000.0

	// HFA sanity bounds in points. A freely estimated HFA outside this
	// interval is clamped and flagged.
	HFAMin = 0.0
	HFAMax = 7.0
)

// SolveConfig is the full configuration surface of one solve. Construct
// through New (or Load) so validation always runs; treat values as
// immutable afterwards.
type SolveConfig struct {
	Season int `yaml:"season" json:"season"`
	// Week is the inclusive cutoff: games beyond it are excluded.
	Week int `yaml:"week" json:"week"`

	RegularizationLambda  float64  `yaml:"regularization_lambda" json:"regularization_lambda"`
	PriorStrength         float64  `yaml:"prior_strength" json:"prior_strength"`
	PriorsEnabled         bool     `yaml:"priors_enabled" json:"priors_enabled"`
	HomeFieldOverride     *float64 `yaml:"home_field_override" json:"home_field_override"`
	RecencyHalflifeDays   float64  `yaml:"recency_halflife_days" json:"recency_halflife_days"`
	ResidualWarnThreshold float64  `yaml:"residual_warn_threshold" json:"residual_warn_threshold"`
	MinGamesForPriorTrust int      `yaml:"min_games_for_prior_trust" json:"min_games_for_prior_trust"`
	MinPredictiveCorr     float64  `yaml:"min_predictive_corr" json:"min_predictive_corr"`

	// Conditioning guardrails for the ridge solve.
	MaxConditionNumber    float64 `yaml:"max_condition_number" json:"max_condition_number"`
	LambdaEscalationRatio float64 `yaml:"lambda_escalation_ratio" json:"lambda_escalation_ratio"`
	MaxLambdaRetries      int     `yaml:"max_lambda_retries" json:"max_lambda_retries"`
}

// Option mutates a SolveConfig under construction, before validation.
type Option func(*SolveConfig)

// WithLambda sets the ridge regularization strength.
func WithLambda(lambda float64) Option {
	return func(c *SolveConfig) { c.RegularizationLambda = lambda }
}

// WithPriors enables talent priors at the given pseudo-observation
// weight.
func WithPriors(strength float64) Option {
	return func(c *SolveConfig) {
		c.PriorsEnabled = true
		c.PriorStrength = strength
	}
}

// WithHomeFieldOverride fixes HFA to a known value instead of
// estimating it; the HFA column is removed from the unknowns entirely.
func WithHomeFieldOverride(points float64) Option {
	return func(c *SolveConfig) { c.HomeFieldOverride = &points }
}

// WithHalflife sets the recency decay halflife in days.
func WithHalflife(days float64) Option {
	return func(c *SolveConfig) { c.RecencyHalflifeDays = days }
}

func defaults() SolveConfig {
	return SolveConfig{
		RegularizationLambda:  DefaultLambda,
		PriorStrength:         DefaultPriorStrength,
		PriorsEnabled:         true,
		RecencyHalflifeDays:   DefaultHalflifeDays,
		ResidualWarnThreshold: DefaultResidualWarnPoints,
		MinGamesForPriorTrust: DefaultMinGamesForTrust,
		MinPredictiveCorr:     DefaultMinPredictiveCorr,
		MaxConditionNumber:    DefaultMaxConditionNumber,
		LambdaEscalationRatio: DefaultLambdaEscalation,
		MaxLambdaRetries:      DefaultMaxLambdaRetries,
	}
}

// New builds a validated SolveConfig for one (season, week) solve.
func New(season, week int, opts ...Option) (SolveConfig, error) {
	cfg := defaults()
	cfg.Season = season
	cfg.Week = week
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return SolveConfig{}, err
	}
	return cfg, nil
}

// Validate enforces the construction-time invariants of the
// configuration surface. Every violation is a ConfigurationError.
func (c SolveConfig) Validate() error {
	if c.Season <= 0 {
		return ratings.NewConfigurationError("season", "must be positive")
	}
	if c.Week < 0 {
		return ratings.NewConfigurationError("week", "must be non-negative")
	}
	if c.RegularizationLambda < 0 {
		return ratings.NewConfigurationError("regularization_lambda", "must be non-negative")
	}
	if c.RecencyHalflifeDays <= 0 {
		return ratings.NewConfigurationError("recency_halflife_days", "must be positive")
	}
	if c.PriorStrength < 0 {
		return ratings.NewConfigurationError("prior_strength", "must be non-negative")
	}
	if c.MinGamesForPriorTrust <= 0 {
		return ratings.NewConfigurationError("min_games_for_prior_trust", "must be positive")
	}
	if c.ResidualWarnThreshold <= 0 {
		return ratings.NewConfigurationError("residual_warn_threshold", "must be positive")
	}
	if c.HomeFieldOverride != nil {
		if v := *c.HomeFieldOverride; v < HFAMin || v > HFAMax {
			return ratings.NewConfigurationError("home_field_override",
				fmt.Sprintf("%.2f outside [%g, %g]", v, HFAMin, HFAMax))
		}
	}
	if c.MaxConditionNumber <= 1 {
		return ratings.NewConfigurationError("max_condition_number", "must exceed 1")
	}
	if c.LambdaEscalationRatio <= 1 {
		return ratings.NewConfigurationError("lambda_escalation_ratio", "must exceed 1")
	}
	if c.MaxLambdaRetries < 0 {
		return ratings.NewConfigurationError("max_lambda_retries", "must be non-negative")
	}
	return nil
}

// Hash returns a deterministic digest of every knob that affects solver
// output. It is the cache-key component that distinguishes two solves
// of the same (season, week) under different configuration.
func (c SolveConfig) Hash() string {
	override := "estimate"
	if c.HomeFieldOverride != nil {
		override = fmt.Sprintf("%.6f", *c.HomeFieldOverride)
	}
	canonical := fmt.Sprintf(
		"season=%d|week=%d|lambda=%.9f|prior_strength=%.6f|priors=%t|hfa=%s|halflife=%.4f|min_games=%d|max_cond=%.3e|escalation=%.4f|retries=%d",
		c.Season, c.Week, c.RegularizationLambda, c.PriorStrength, c.PriorsEnabled,
		override, c.RecencyHalflifeDays, c.MinGamesForPriorTrust,
		c.MaxConditionNumber, c.LambdaEscalationRatio, c.MaxLambdaRetries,
	)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}

// Load reads a SolveConfig from a YAML file, applying defaults for any
// omitted field, then validates.
func Load(path string) (SolveConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SolveConfig{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SolveConfig{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return SolveConfig{}, err
	}
	return cfg, nil
}
