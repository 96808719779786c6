package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlab/powerrank/internal/config"
	"github.com/gridironlab/powerrank/internal/ratings"
	"github.com/gridironlab/powerrank/internal/solver"
)

func testSystem(t *testing.T) *solver.System {
	t.Helper()
	hp1, ap1 := 28, 21
	hp2, ap2 := 17, 24
	games := []ratings.GameRecord{
		{ID: "g1", Season: 2024, Week: 1, HomeTeam: "Alma", AwayTeam: "Berea", HomePoints: &hp1, AwayPoints: &ap1},
		{ID: "g2", Season: 2024, Week: 1, HomeTeam: "Berea", AwayTeam: "Alma", HomePoints: &hp2, AwayPoints: &ap2},
	}
	sys, err := solver.Build(solver.BuilderInput{
		Index:   ratings.NewTeamIndex([]string{"Alma", "Berea"}),
		Games:   games,
		Weights: []float64{1, 1},
	})
	require.NoError(t, err)
	return sys
}

func cleanSolution() *solver.Solution {
	return &solver.Solution{
		TeamRatings: []float64{3.5, -3.5},
		HFA:         2.0,
		Fitted:      []float64{9, -5},
		Residuals:   []float64{2, 2},
		RatingsSum:  0,
	}
}

func mustValidator(t *testing.T, opts ...config.Option) *Validator {
	t.Helper()
	cfg, err := config.New(2024, 1, opts...)
	require.NoError(t, err)
	return NewValidator(cfg)
}

func TestValidate_CleanSolvePasses(t *testing.T) {
	rep, err := mustValidator(t).Validate(testSystem(t), cleanSolution())
	require.NoError(t, err)
	assert.Equal(t, StatusPass, rep.Status)
	assert.False(t, rep.Degraded())
	assert.Empty(t, rep.Warnings())
}

func TestValidate_ZeroSumViolationIsHardFail(t *testing.T) {
	sol := cleanSolution()
	sol.RatingsSum = 0.01

	rep, err := mustValidator(t).Validate(testSystem(t), sol)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, rep.Status)
}

func TestValidate_NonFiniteRatingIsSolverError(t *testing.T) {
	sol := cleanSolution()
	sol.TeamRatings[1] = math.NaN()

	_, err := mustValidator(t).Validate(testSystem(t), sol)
	assert.ErrorIs(t, err, ratings.ErrSolver)
}

func TestValidate_HFAOutsideBoundIsHardFail(t *testing.T) {
	sol := cleanSolution()
	sol.HFA = 9.5

	rep, err := mustValidator(t).Validate(testSystem(t), sol)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, rep.Status)
}

func TestValidate_ClampedHFAIsWarning(t *testing.T) {
	sol := cleanSolution()
	sol.HFA = 7.0
	sol.HFAClamped = true

	rep, err := mustValidator(t).Validate(testSystem(t), sol)
	require.NoError(t, err)
	assert.Equal(t, StatusWarn, rep.Status)
	assert.True(t, rep.Degraded())
}

func TestValidate_OverrideMismatchIsHardFail(t *testing.T) {
	v := mustValidator(t, config.WithHomeFieldOverride(3.0))
	sol := cleanSolution()
	sol.HFA = 2.0

	rep, err := v.Validate(testSystem(t), sol)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, rep.Status)

	sol.HFA = 3.0
	rep, err = v.Validate(testSystem(t), sol)
	require.NoError(t, err)
	assert.NotEqual(t, StatusFail, rep.Status)
}

func TestValidate_HighResidualsWarnOnly(t *testing.T) {
	sol := cleanSolution()
	sol.Residuals = []float64{20, -18}

	rep, err := mustValidator(t).Validate(testSystem(t), sol)
	require.NoError(t, err)
	assert.Equal(t, StatusWarn, rep.Status)

	var found bool
	for _, f := range rep.Warnings() {
		if f.Check == CheckResidualMedian {
			found = true
		}
	}
	assert.True(t, found)
	assert.InDelta(t, 19, rep.MedianAbsResidual, 1e-12)
}

func TestValidate_LowCorrelationWarnOnly(t *testing.T) {
	// Fitted margins moving against the actuals: correlation well
	// below the 0.5 floor, but still only a warning.
	sol := cleanSolution()
	sol.Fitted = []float64{-7, 7, 1}

	rep, err := mustValidator(t).Validate(threeGameSystem(t), sol)
	require.NoError(t, err)
	assert.Equal(t, StatusWarn, rep.Status)
	assert.Less(t, rep.PredictiveCorr, 0.5)
}

func threeGameSystem(t *testing.T) *solver.System {
	t.Helper()
	scores := [][2]int{{28, 21}, {17, 24}, {35, 14}}
	var games []ratings.GameRecord
	for i, s := range scores {
		hp, ap := s[0], s[1]
		home, away := "Alma", "Berea"
		if i%2 == 1 {
			home, away = "Berea", "Alma"
		}
		games = append(games, ratings.GameRecord{
			ID: string(rune('a' + i)), Season: 2024, Week: 1,
			HomeTeam: home, AwayTeam: away,
			HomePoints: &hp, AwayPoints: &ap,
		})
	}
	sys, err := solver.Build(solver.BuilderInput{
		Index:   ratings.NewTeamIndex([]string{"Alma", "Berea"}),
		Games:   games,
		Weights: []float64{1, 1, 1},
	})
	require.NoError(t, err)
	return sys
}
