package ratings

import (
	"github.com/rs/zerolog/log"
)

// FilterGames narrows an input snapshot to the games included in one
// solve: matching season, week <= cutoff, unique game IDs. A game with
// a missing final score inside the window is a DataError, never coerced
// to 0-0 or silently dropped; the external collaborator contract is
// that included games carry final scores.
//
// Duplicate game IDs are de-duplicated first-wins, logged per
// occurrence so upstream ingestion bugs stay visible.
func FilterGames(games []GameRecord, season, week int) ([]GameRecord, error) {
	included := make([]GameRecord, 0, len(games))
	seen := make(map[string]struct{}, len(games))

	for _, g := range games {
		if g.Season != season || g.Week > week {
			continue
		}
		if _, dup := seen[g.ID]; dup {
			log.Warn().
				Str("game_id", g.ID).
				Int("season", season).
				Int("week", g.Week).
				Msg("duplicate game id dropped before matrix construction")
			continue
		}
		if g.HomePoints == nil || g.AwayPoints == nil {
			return nil, &DataError{GameID: g.ID, Reason: "missing final score"}
		}
		if *g.HomePoints < 0 || *g.AwayPoints < 0 {
			return nil, &DataError{GameID: g.ID, Reason: "negative score"}
		}
		if g.HomeTeam == "" || g.AwayTeam == "" {
			return nil, &DataError{GameID: g.ID, Reason: "missing team name"}
		}
		if g.HomeTeam == g.AwayTeam {
			return nil, &DataError{GameID: g.ID, Reason: "team playing itself"}
		}
		seen[g.ID] = struct{}{}
		included = append(included, g)
	}
	return included, nil
}

// GamesPlayed counts appearances per team across the included games.
func GamesPlayed(games []GameRecord) map[string]int {
	counts := make(map[string]int)
	for _, g := range games {
		counts[g.HomeTeam]++
		counts[g.AwayTeam]++
	}
	return counts
}

// GameTeams collects every team name appearing in the included games.
func GameTeams(games []GameRecord) []string {
	seen := make(map[string]struct{}, len(games)*2)
	teams := make([]string, 0, len(games)*2)
	for _, g := range games {
		if _, ok := seen[g.HomeTeam]; !ok {
			seen[g.HomeTeam] = struct{}{}
			teams = append(teams, g.HomeTeam)
		}
		if _, ok := seen[g.AwayTeam]; !ok {
			seen[g.AwayTeam] = struct{}{}
			teams = append(teams, g.AwayTeam)
		}
	}
	return teams
}
