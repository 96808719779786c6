package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlab/powerrank/internal/config"
	"github.com/gridironlab/powerrank/internal/ratings"
	"github.com/gridironlab/powerrank/internal/validate"
)

var kickoff = time.Date(2024, 9, 7, 0, 0, 0, 0, time.UTC)

func game(id string, week int, home, away string, homePts, awayPts int) ratings.GameRecord {
	hp, ap := homePts, awayPts
	return ratings.GameRecord{
		ID: id, Season: 2024, Week: week,
		HomeTeam: home, AwayTeam: away,
		HomePoints: &hp, AwayPoints: &ap,
		Date: kickoff.AddDate(0, 0, 7*(week-1)),
	}
}

func seasonGames() []ratings.GameRecord {
	return []ratings.GameRecord{
		game("g1", 1, "Alma", "Berea", 31, 21),
		game("g2", 1, "Canton", "Denton", 28, 24),
		game("g3", 2, "Alma", "Canton", 35, 17),
		game("g4", 2, "Berea", "Denton", 27, 20),
		game("g5", 3, "Denton", "Alma", 13, 30),
		game("g6", 3, "Berea", "Canton", 21, 24),
	}
}

func mustEngine(t *testing.T, opts ...config.Option) *Engine {
	t.Helper()
	cfg, err := config.New(2024, 3, opts...)
	require.NoError(t, err)
	eng, err := New(cfg)
	require.NoError(t, err)
	return eng
}

func TestSolve_ProducesRowPerTeam(t *testing.T) {
	eng := mustEngine(t)
	res, err := eng.Solve(Input{Games: seasonGames()})
	require.NoError(t, err)

	require.Len(t, res.Ratings, 4)
	for _, r := range res.Ratings {
		assert.Equal(t, 2024, r.Season)
		assert.Equal(t, 3, r.Week)
		assert.Equal(t, 3, r.GamesPlayed)
		assert.Equal(t, ratings.SolverVersion, r.SolverVersion)
		assert.Equal(t, res.Diagnostics.HFA, r.HFA)
	}
	assert.Less(t, math.Abs(res.Diagnostics.RatingsSum), 1e-6)
	assert.NotEqual(t, validate.StatusFail, res.Report.Status)
}

func TestSolve_Deterministic(t *testing.T) {
	eng := mustEngine(t)
	in := Input{Games: seasonGames()}

	first, err := eng.Solve(in)
	require.NoError(t, err)
	second, err := eng.Solve(in)
	require.NoError(t, err)

	for i := range first.Ratings {
		assert.Equal(t, first.Ratings[i].Rating, second.Ratings[i].Rating)
		assert.Equal(t, first.Ratings[i].Team, second.Ratings[i].Team)
	}
	assert.Equal(t, first.Diagnostics.HFA, second.Diagnostics.HFA)
}

func TestSolve_PriorOnlyTeamGetsExactPrior(t *testing.T) {
	eng := mustEngine(t)

	// Pre-blended zero-centered priors; Flagstaff has no games.
	res, err := eng.Solve(Input{
		Games: seasonGames(),
		Priors: map[string]float64{
			"Alma": 0.9, "Berea": -0.7, "Canton": -0.2, "Denton": -1.2, "Flagstaff": 1.2,
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Ratings, 5)

	var flagstaff *ratings.RatingResult
	for i := range res.Ratings {
		if res.Ratings[i].Team == "Flagstaff" {
			flagstaff = &res.Ratings[i]
		}
	}
	require.NotNil(t, flagstaff)
	assert.Equal(t, 1.2, flagstaff.Rating)
	assert.Equal(t, 1.2, flagstaff.TalentPrior)
	assert.Equal(t, 0, flagstaff.GamesPlayed)
	assert.True(t, flagstaff.RatedByPriorsOnly)
	assert.Equal(t, 1, res.Diagnostics.PriorOnlyTeams)
}

func TestSolve_ZeroGameTeamExcludedWithoutPriors(t *testing.T) {
	cfg, err := config.New(2024, 3)
	require.NoError(t, err)
	cfg.PriorsEnabled = false
	eng, err := New(cfg)
	require.NoError(t, err)

	res, err := eng.Solve(Input{
		Games:  seasonGames(),
		Talent: []ratings.TalentComposite{{Team: "Flagstaff", Composite: 950}},
	})
	require.NoError(t, err)

	for _, r := range res.Ratings {
		assert.NotEqual(t, "Flagstaff", r.Team)
	}
}

func TestSolve_MissingScoreIsDataError(t *testing.T) {
	games := seasonGames()
	games[2].HomePoints = nil

	eng := mustEngine(t)
	_, err := eng.Solve(Input{Games: games})
	assert.ErrorIs(t, err, ratings.ErrData)
}

func TestSolve_DuplicateGameIDsDeduplicated(t *testing.T) {
	games := seasonGames()
	dup := games[0]
	games = append(games, dup)

	eng := mustEngine(t)
	res, err := eng.Solve(Input{Games: games})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Diagnostics.GamesIncluded)
}

func TestSolve_WeekCutoffExcludesLaterGames(t *testing.T) {
	cfg, err := config.New(2024, 1)
	require.NoError(t, err)
	eng, err := New(cfg)
	require.NoError(t, err)

	res, err := eng.Solve(Input{Games: seasonGames()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Diagnostics.GamesIncluded)
	for _, r := range res.Ratings {
		assert.Equal(t, 1, r.GamesPlayed)
	}
}

func TestSolve_HomeFieldOverrideFixesEveryRow(t *testing.T) {
	eng := mustEngine(t, config.WithHomeFieldOverride(3.0))

	res, err := eng.Solve(Input{Games: seasonGames()})
	require.NoError(t, err)

	for _, r := range res.Ratings {
		assert.Equal(t, 3.0, r.HFA)
	}
	assert.Equal(t, 3.0, res.Diagnostics.HFA)
	assert.False(t, res.Diagnostics.HFAEstimated)
}

func TestSolve_TalentCompositesFlowThroughBlender(t *testing.T) {
	eng := mustEngine(t)
	res, err := eng.Solve(Input{
		Games: seasonGames(),
		Talent: []ratings.TalentComposite{
			{Team: "Alma", Composite: 940},
			{Team: "Berea", Composite: 610},
			{Team: "Canton", Composite: 705},
			{Team: "Denton", Composite: 480},
		},
	})
	require.NoError(t, err)

	var priorSum float64
	for _, r := range res.Ratings {
		priorSum += r.TalentPrior
	}
	assert.InDelta(t, 0, priorSum, 1e-9)
}

func TestSolve_ClockInjectionControlsTimestamps(t *testing.T) {
	fixed := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	cfg, err := config.New(2024, 3)
	require.NoError(t, err)
	eng, err := New(cfg, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	res, err := eng.Solve(Input{Games: seasonGames()})
	require.NoError(t, err)
	for _, r := range res.Ratings {
		assert.Equal(t, fixed, r.LastUpdated)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg, err := config.New(2024, 3)
	require.NoError(t, err)
	cfg.RegularizationLambda = -1

	_, err = New(cfg)
	assert.ErrorIs(t, err, ratings.ErrConfiguration)
}
