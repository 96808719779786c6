package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlab/powerrank/internal/ratings"
)

const gamesCSV = `game_id,season,week,date,home_team,away_team,home_points,away_points,neutral_site
g1,2024,1,2024-08-31,Alma,Berea,28,21,false
g2,2024,2,2024-09-07,Canton,Denton,17,13,true
g3,2024,3,2024-09-14,Alma,Canton,,,false
`

func TestParseGames(t *testing.T) {
	games, err := ParseGames(strings.NewReader(gamesCSV))
	require.NoError(t, err)
	require.Len(t, games, 3)

	g := games[0]
	assert.Equal(t, "g1", g.ID)
	assert.Equal(t, 2024, g.Season)
	assert.Equal(t, 1, g.Week)
	assert.Equal(t, time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC), g.Date)
	assert.Equal(t, "Alma", g.HomeTeam)
	assert.Equal(t, "Berea", g.AwayTeam)
	require.NotNil(t, g.HomePoints)
	require.NotNil(t, g.AwayPoints)
	assert.Equal(t, 28, *g.HomePoints)
	assert.Equal(t, 21, *g.AwayPoints)
	assert.False(t, g.NeutralSite)

	assert.True(t, games[1].NeutralSite)

	// Empty score cells come through as nil, not zero.
	assert.Nil(t, games[2].HomePoints)
	assert.Nil(t, games[2].AwayPoints)
}

func TestParseGames_BadHeader(t *testing.T) {
	in := "game_id,season,week\ng1,2024,1\n"
	_, err := ParseGames(strings.NewReader(in))
	assert.ErrorIs(t, err, ratings.ErrData)
}

func TestParseGames_BadCells(t *testing.T) {
	cases := map[string]string{
		"season":  "g1,twenty,1,2024-08-31,Alma,Berea,28,21,false",
		"date":    "g1,2024,1,Aug-31,Alma,Berea,28,21,false",
		"score":   "g1,2024,1,2024-08-31,Alma,Berea,abc,21,false",
		"neutral": "g1,2024,1,2024-08-31,Alma,Berea,28,21,perhaps",
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			in := strings.Join(gamesHeader, ",") + "\n" + row + "\n"
			_, err := ParseGames(strings.NewReader(in))
			assert.ErrorIs(t, err, ratings.ErrData)
		})
	}
}

func TestLoadGames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.csv")
	require.NoError(t, os.WriteFile(path, []byte(gamesCSV), 0o644))

	games, err := LoadGames(path)
	require.NoError(t, err)
	assert.Len(t, games, 3)

	_, err = LoadGames(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestParseTalent(t *testing.T) {
	in := "team,composite\nAlma,812.5\nBerea,640\n"
	comps, err := ParseTalent(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, ratings.TalentComposite{Team: "Alma", Composite: 812.5}, comps[0])
	assert.Equal(t, ratings.TalentComposite{Team: "Berea", Composite: 640}, comps[1])
}

func TestParseTalent_Rejections(t *testing.T) {
	cases := map[string]string{
		"bad header":         "squad,composite\nAlma,812\n",
		"empty team":         "team,composite\n ,812\n",
		"non-numeric":        "team,composite\nAlma,strong\n",
		"negative composite": "team,composite\nAlma,-5\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTalent(strings.NewReader(in))
			assert.ErrorIs(t, err, ratings.ErrData)
		})
	}
}
