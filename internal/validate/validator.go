// Package validate checks solver output against the numerical
// invariants of the rating system and produces a structured
// pass/warn/fail report. Soft violations never raise; they ride along
// in the report so batch callers can continue past a degraded week
// while still surfacing it.
package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/gridironlab/powerrank/internal/config"
	"github.com/gridironlab/powerrank/internal/ratings"
	"github.com/gridironlab/powerrank/internal/solver"
)

// Status is the overall verdict of one validation run.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check names used in reports and telemetry labels.
const (
	CheckZeroSum        = "zero_sum"
	CheckHFABound       = "hfa_bound"
	CheckResidualMedian = "residual_median"
	CheckPredictiveCorr = "predictive_corr"
	CheckFiniteness     = "finiteness"
)

// zeroSumTolerance is the hard bound on |sum of ratings|. A violation
// indicates a construction bug, not borderline data.
const zeroSumTolerance = 1e-6

// Finding is one check outcome.
type Finding struct {
	Check   string  `json:"check"`
	Status  Status  `json:"status"`
	Value   float64 `json:"value"`
	Bound   float64 `json:"bound"`
	Message string  `json:"message"`
}

// Report is the full validation result for one solve.
type Report struct {
	Status   Status    `json:"status"`
	Findings []Finding `json:"findings"`

	MedianAbsResidual float64 `json:"median_abs_residual"`
	PredictiveCorr    float64 `json:"predictive_corr"`
	RatingsSum        float64 `json:"ratings_sum"`
}

// Degraded reports whether the result is usable but carries warnings.
func (r *Report) Degraded() bool { return r.Status == StatusWarn }

// Warnings returns the warn-level findings.
func (r *Report) Warnings() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Status == StatusWarn {
			out = append(out, f)
		}
	}
	return out
}

// Validator runs the post-solve invariant checks.
type Validator struct {
	ResidualWarnThreshold float64
	MinPredictiveCorr     float64
	HomeFieldOverride     *float64
}

// NewValidator builds a Validator from the solve configuration.
func NewValidator(cfg config.SolveConfig) *Validator {
	return &Validator{
		ResidualWarnThreshold: cfg.ResidualWarnThreshold,
		MinPredictiveCorr:     cfg.MinPredictiveCorr,
		HomeFieldOverride:     cfg.HomeFieldOverride,
	}
}

// Validate inspects a solution against the system it came from.
// Finiteness failures return a SolverError (re-checked defensively
// here; the solver already aborts on them). All other outcomes are
// encoded in the report, never raised.
func (v *Validator) Validate(sys *solver.System, sol *solver.Solution) (*Report, error) {
	rep := &Report{Status: StatusPass}

	for i, r := range sol.TeamRatings {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			rep.add(Finding{
				Check:   CheckFiniteness,
				Status:  StatusFail,
				Message: fmt.Sprintf("non-finite rating for %s", sys.Index.Team(i)),
			})
			return rep, &ratings.SolverError{
				Stage:  "validation",
				Reason: "non-finite rating reached the validator",
			}
		}
	}

	rep.RatingsSum = sol.RatingsSum
	if math.Abs(sol.RatingsSum) < zeroSumTolerance {
		rep.add(Finding{
			Check:  CheckZeroSum,
			Status: StatusPass,
			Value:  sol.RatingsSum,
			Bound:  zeroSumTolerance,
		})
	} else {
		rep.add(Finding{
			Check:   CheckZeroSum,
			Status:  StatusFail,
			Value:   sol.RatingsSum,
			Bound:   zeroSumTolerance,
			Message: "ratings do not sum to zero; normalization row lost",
		})
	}

	v.checkHFA(rep, sol)
	v.checkResiduals(rep, sol)
	v.checkCorrelation(rep, sys, sol)

	return rep, nil
}

func (v *Validator) checkHFA(rep *Report, sol *solver.Solution) {
	hfa := sol.HFA
	if v.HomeFieldOverride != nil {
		if hfa == *v.HomeFieldOverride {
			rep.add(Finding{Check: CheckHFABound, Status: StatusPass, Value: hfa})
		} else {
			rep.add(Finding{
				Check:   CheckHFABound,
				Status:  StatusFail,
				Value:   hfa,
				Message: fmt.Sprintf("hfa %.4f does not match override %.4f", hfa, *v.HomeFieldOverride),
			})
		}
		return
	}

	if hfa < config.HFAMin || hfa > config.HFAMax {
		rep.add(Finding{
			Check:   CheckHFABound,
			Status:  StatusFail,
			Value:   hfa,
			Bound:   config.HFAMax,
			Message: fmt.Sprintf("hfa %.4f outside [%g, %g] after clamping", hfa, config.HFAMin, config.HFAMax),
		})
		return
	}
	if sol.HFAClamped {
		rep.add(Finding{
			Check:   CheckHFABound,
			Status:  StatusWarn,
			Value:   hfa,
			Bound:   config.HFAMax,
			Message: "estimated hfa was clamped to sanity bound",
		})
		return
	}
	rep.add(Finding{Check: CheckHFABound, Status: StatusPass, Value: hfa, Bound: config.HFAMax})
}

func (v *Validator) checkResiduals(rep *Report, sol *solver.Solution) {
	if len(sol.Residuals) == 0 {
		return
	}
	med := medianAbs(sol.Residuals)
	rep.MedianAbsResidual = med
	if med <= v.ResidualWarnThreshold {
		rep.add(Finding{Check: CheckResidualMedian, Status: StatusPass, Value: med, Bound: v.ResidualWarnThreshold})
		return
	}
	rep.add(Finding{
		Check:   CheckResidualMedian,
		Status:  StatusWarn,
		Value:   med,
		Bound:   v.ResidualWarnThreshold,
		Message: fmt.Sprintf("median absolute residual %.2f exceeds %.2f points", med, v.ResidualWarnThreshold),
	})
}

func (v *Validator) checkCorrelation(rep *Report, sys *solver.System, sol *solver.Solution) {
	if len(sol.Fitted) < 3 {
		return
	}
	corr := pearson(sol.Fitted, sys.Margins)
	rep.PredictiveCorr = corr
	if math.IsNaN(corr) || corr >= v.MinPredictiveCorr {
		rep.add(Finding{Check: CheckPredictiveCorr, Status: StatusPass, Value: corr, Bound: v.MinPredictiveCorr})
		return
	}
	rep.add(Finding{
		Check:   CheckPredictiveCorr,
		Status:  StatusWarn,
		Value:   corr,
		Bound:   v.MinPredictiveCorr,
		Message: fmt.Sprintf("predicted-margin correlation %.3f below %.2f", corr, v.MinPredictiveCorr),
	})
}

func (rep *Report) add(f Finding) {
	rep.Findings = append(rep.Findings, f)
	switch f.Status {
	case StatusFail:
		rep.Status = StatusFail
	case StatusWarn:
		if rep.Status != StatusFail {
			rep.Status = StatusWarn
		}
	}
}

func medianAbs(vals []float64) float64 {
	abs := make([]float64, len(vals))
	for i, v := range vals {
		abs[i] = math.Abs(v)
	}
	sort.Float64s(abs)
	mid := len(abs) / 2
	if len(abs)%2 == 1 {
		return abs[mid]
	}
	return (abs[mid-1] + abs[mid]) / 2
}

func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	mx, my := sx/n, sy/n

	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(vx*vy)
}
