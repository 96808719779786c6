package ratings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, season, week int, home, away string, homePts, awayPts *int) GameRecord {
	return GameRecord{
		ID: id, Season: season, Week: week,
		HomeTeam: home, AwayTeam: away,
		HomePoints: homePts, AwayPoints: awayPts,
		Date: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*week),
	}
}

func pts(v int) *int { return &v }

func TestFilterGames_WindowAndDedup(t *testing.T) {
	games := []GameRecord{
		record("g1", 2024, 1, "Alma", "Berea", pts(28), pts(21)),
		record("g1", 2024, 1, "Alma", "Berea", pts(28), pts(21)), // duplicate id
		record("g2", 2024, 2, "Canton", "Denton", pts(17), pts(13)),
		record("g3", 2024, 5, "Alma", "Canton", pts(35), pts(10)), // beyond cutoff
		record("g4", 2023, 1, "Berea", "Denton", pts(20), pts(14)), // wrong season
	}

	included, err := FilterGames(games, 2024, 3)
	require.NoError(t, err)
	require.Len(t, included, 2)
	assert.Equal(t, "g1", included[0].ID)
	assert.Equal(t, "g2", included[1].ID)
}

func TestFilterGames_MissingScore(t *testing.T) {
	games := []GameRecord{
		record("g1", 2024, 1, "Alma", "Berea", nil, pts(21)),
	}
	_, err := FilterGames(games, 2024, 3)
	assert.ErrorIs(t, err, ErrData)

	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "g1", de.GameID)
}

func TestFilterGames_SelfGame(t *testing.T) {
	games := []GameRecord{
		record("g1", 2024, 1, "Alma", "Alma", pts(10), pts(7)),
	}
	_, err := FilterGames(games, 2024, 3)
	assert.ErrorIs(t, err, ErrData)
}

func TestFilterGames_OutOfWindowDefectsIgnored(t *testing.T) {
	// A missing score outside the solve window must not fail the solve.
	games := []GameRecord{
		record("g1", 2024, 1, "Alma", "Berea", pts(28), pts(21)),
		record("g9", 2024, 9, "Canton", "Denton", nil, nil),
	}
	included, err := FilterGames(games, 2024, 3)
	require.NoError(t, err)
	assert.Len(t, included, 1)
}

func TestGamesPlayed(t *testing.T) {
	games := []GameRecord{
		record("g1", 2024, 1, "Alma", "Berea", pts(28), pts(21)),
		record("g2", 2024, 2, "Alma", "Canton", pts(14), pts(17)),
	}
	counts := GamesPlayed(games)
	assert.Equal(t, 2, counts["Alma"])
	assert.Equal(t, 1, counts["Berea"])
	assert.Equal(t, 1, counts["Canton"])
	assert.Equal(t, 0, counts["Denton"])
}

func TestTeamIndex_DeterministicOrder(t *testing.T) {
	a := NewTeamIndex([]string{"Zion", "Alma", "Mercer", "Alma"})
	b := NewTeamIndex([]string{"Mercer", "Zion", "Alma"})

	require.Equal(t, 3, a.Len())
	assert.Equal(t, a.Teams(), b.Teams())
	assert.Equal(t, []string{"Alma", "Mercer", "Zion"}, a.Teams())

	col, ok := a.Col("Mercer")
	require.True(t, ok)
	assert.Equal(t, 1, col)
	assert.Equal(t, "Mercer", a.Team(1))

	_, ok = a.Col("Phantom")
	assert.False(t, ok)
}
