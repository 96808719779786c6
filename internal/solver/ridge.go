package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/gridironlab/powerrank/internal/config"
	"github.com/gridironlab/powerrank/internal/matrix"
	"github.com/gridironlab/powerrank/internal/ratings"
)

// Solution is the solved state of one system.
type Solution struct {
	// TeamRatings is aligned with the system's TeamIndex columns.
	TeamRatings []float64

	HFA          float64
	HFAClamped   bool
	HFAEstimated bool

	// LambdaUsed is the regularization strength the accepted solve ran
	// with; LambdaRetries counts conditioning-driven escalations.
	LambdaUsed        float64
	LambdaRetries     int
	ConditionEstimate float64

	// Fitted and Residuals cover the game rows only: fitted home
	// margin (HFA included) and fitted minus actual.
	Fitted    []float64
	Residuals []float64

	// RatingsSum is the zero-sum diagnostic: the solved team ratings
	// summed in column order.
	RatingsSum float64
}

// Ridge solves System instances under the configured conditioning
// guardrails.
type Ridge struct {
	Lambda          float64
	MaxCondition    float64
	EscalationRatio float64
	MaxRetries      int
}

// NewRidge builds a Ridge from the solve configuration.
func NewRidge(cfg config.SolveConfig) *Ridge {
	return &Ridge{
		Lambda:          cfg.RegularizationLambda,
		MaxCondition:    cfg.MaxConditionNumber,
		EscalationRatio: cfg.LambdaEscalationRatio,
		MaxRetries:      cfg.MaxLambdaRetries,
	}
}

// lambdaFloor seeds escalation when the configured lambda is exactly
// zero, since zero cannot be escalated multiplicatively.
const lambdaFloor = 1e-8

// Solve minimizes ||W^1/2 (Ax - b)||^2 + lambda ||x_teams||^2 via the
// normal equations, with the regularization excluded from the HFA
// diagonal entry so the home-field estimate is not biased toward zero.
//
// An ill-conditioned or indefinite normal matrix is retried with an
// escalated lambda, logged each time; retries exhausted or a non-finite
// solution is a hard SolverError with no partial result.
func (r *Ridge) Solve(sys *System) (*Solution, error) {
	base, rhs, err := sys.A.WeightedNormal(sys.B, sys.W)
	if err != nil {
		return nil, &ratings.SolverError{Stage: "normal_equations", Reason: err.Error()}
	}

	nTeams := sys.Teams()
	lambda := r.Lambda
	var (
		x    []float64
		cond float64
	)

	attempt := 0
	for {
		n := regularized(base, lambda, nTeams)

		ch, ferr := matrix.Factorize(n)
		if ferr == nil {
			cond = ch.ConditionEstimate()
			if cond <= r.MaxCondition {
				x, err = ch.Solve(rhs)
				if err != nil {
					return nil, &ratings.SolverError{Stage: "back_substitution", Reason: err.Error()}
				}
				break
			}
			log.Warn().
				Float64("condition_estimate", cond).
				Float64("lambda", lambda).
				Int("attempt", attempt).
				Msg("normal equations ill-conditioned, escalating lambda")
		} else if errors.Is(ferr, matrix.ErrNotPositiveDefinite) {
			log.Warn().
				Float64("lambda", lambda).
				Int("attempt", attempt).
				Str("reason", ferr.Error()).
				Msg("factorization failed, escalating lambda")
		} else {
			return nil, &ratings.SolverError{Stage: "factorization", Reason: ferr.Error()}
		}

		if attempt >= r.MaxRetries {
			return nil, &ratings.SolverError{
				Stage:  "conditioning",
				Reason: fmt.Sprintf("lambda escalation exhausted after %d retries (lambda=%g)", attempt, lambda),
			}
		}
		attempt++
		if lambda <= 0 {
			lambda = lambdaFloor
		} else {
			lambda *= r.EscalationRatio
		}
	}

	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ratings.SolverError{
				Stage:  "solution",
				Reason: fmt.Sprintf("non-finite value at column %d", i),
			}
		}
	}

	sol := &Solution{
		TeamRatings:       x[:nTeams],
		LambdaUsed:        lambda,
		LambdaRetries:     attempt,
		ConditionEstimate: cond,
		HFAEstimated:      sys.HFACol >= 0,
	}

	if sys.HFACol >= 0 {
		sol.HFA = x[sys.HFACol]
		if sol.HFA < config.HFAMin {
			sol.HFA = config.HFAMin
			sol.HFAClamped = true
		} else if sol.HFA > config.HFAMax {
			sol.HFA = config.HFAMax
			sol.HFAClamped = true
		}
		if sol.HFAClamped {
			log.Warn().
				Float64("hfa_raw", x[sys.HFACol]).
				Float64("hfa", sol.HFA).
				Msg("estimated home-field advantage clamped to sanity bound")
		}
	} else if sys.HomeFieldOverride != nil {
		sol.HFA = *sys.HomeFieldOverride
	}
	// All-neutral schedules leave HFA fixed at zero.

	for _, v := range sol.TeamRatings {
		sol.RatingsSum += v
	}

	sol.Fitted = make([]float64, sys.GameRows)
	sol.Residuals = make([]float64, sys.GameRows)
	for g := 0; g < sys.GameRows; g++ {
		row := sys.A.Row(g)
		var diff float64
		for c := 0; c < nTeams; c++ {
			if row[c] != 0 {
				diff += row[c] * sol.TeamRatings[c]
			}
		}
		fitted := diff + sol.HFA*sys.HFAIndicator[g]
		sol.Fitted[g] = fitted
		sol.Residuals[g] = fitted - sys.Margins[g]
	}

	return sol, nil
}

// regularized copies the normal matrix and adds lambda to the team
// block diagonal, leaving the HFA entry untouched.
func regularized(base *matrix.Dense, lambda float64, nTeams int) *matrix.Dense {
	n, _ := matrix.NewDense(base.Rows(), base.Cols())
	for i := 0; i < base.Rows(); i++ {
		copy(n.Row(i), base.Row(i))
	}
	for i := 0; i < nTeams; i++ {
		n.Set(i, i, n.At(i, i)+lambda)
	}
	return n
}
