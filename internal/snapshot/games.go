// Package snapshot parses pre-fetched game and talent files into the
// in-memory snapshot the solve engine consumes. Acquisition from the
// sports-data provider stays an external concern; these loaders only
// read what a collaborator already wrote to disk.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gridironlab/powerrank/internal/ratings"
)

// gamesHeader is the expected column order of a games snapshot.
var gamesHeader = []string{
	"game_id", "season", "week", "date", "home_team", "away_team",
	"home_points", "away_points", "neutral_site",
}

// LoadGames reads a games snapshot CSV. Empty score cells stay nil so
// the engine can reject them as DataErrors instead of seeing 0-0
// finals.
func LoadGames(path string) ([]ratings.GameRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open games snapshot: %w", err)
	}
	defer f.Close()
	return ParseGames(f)
}

// ParseGames decodes game records from CSV.
func ParseGames(r io.Reader) ([]ratings.GameRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read games header: %w", err)
	}
	if err := checkHeader(header, gamesHeader); err != nil {
		return nil, err
	}

	var games []ratings.GameRecord
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read games row %d: %w", line, err)
		}

		g, err := parseGame(rec)
		if err != nil {
			return nil, fmt.Errorf("games row %d: %w", line, err)
		}
		games = append(games, g)
	}
	return games, nil
}

func parseGame(rec []string) (ratings.GameRecord, error) {
	season, err := strconv.Atoi(rec[1])
	if err != nil {
		return ratings.GameRecord{}, &ratings.DataError{GameID: rec[0], Reason: "bad season: " + rec[1]}
	}
	week, err := strconv.Atoi(rec[2])
	if err != nil {
		return ratings.GameRecord{}, &ratings.DataError{GameID: rec[0], Reason: "bad week: " + rec[2]}
	}
	date, err := time.Parse("2006-01-02", rec[3])
	if err != nil {
		return ratings.GameRecord{}, &ratings.DataError{GameID: rec[0], Reason: "bad date: " + rec[3]}
	}
	homePts, err := parseScore(rec[6])
	if err != nil {
		return ratings.GameRecord{}, &ratings.DataError{GameID: rec[0], Reason: "bad home_points: " + rec[6]}
	}
	awayPts, err := parseScore(rec[7])
	if err != nil {
		return ratings.GameRecord{}, &ratings.DataError{GameID: rec[0], Reason: "bad away_points: " + rec[7]}
	}
	neutral, err := strconv.ParseBool(rec[8])
	if err != nil {
		return ratings.GameRecord{}, &ratings.DataError{GameID: rec[0], Reason: "bad neutral_site: " + rec[8]}
	}

	return ratings.GameRecord{
		ID:          rec[0],
		Season:      season,
		Week:        week,
		Date:        date,
		HomeTeam:    strings.TrimSpace(rec[4]),
		AwayTeam:    strings.TrimSpace(rec[5]),
		HomePoints:  homePts,
		AwayPoints:  awayPts,
		NeutralSite: neutral,
	}, nil
}

func parseScore(cell string) (*int, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(cell)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return &ratings.DataError{Reason: fmt.Sprintf("header has %d columns, want %d", len(got), len(want))}
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return &ratings.DataError{Reason: fmt.Sprintf("header column %d is %q, want %q", i, got[i], want[i])}
		}
	}
	return nil
}
