// Package ratings defines the domain model shared by the power rating
// solver pipeline: game results, team indexing, talent priors, and the
// solved rating rows handed to downstream feature pipelines.
package ratings

import (
	"sort"
	"time"
)

// SolverVersion tags every RatingResult row so downstream consumers can
// detect when the solver semantics changed underneath them.
const SolverVersion = "powerrank-ridge/1.2.0"

// GameRecord is one completed game as supplied by the external data
// collaborator. Records are immutable once handed to a solve.
// HomePoints/AwayPoints are pointers so a missing final score is
// distinguishable from a genuine 0 and can be rejected as a DataError
// instead of silently coerced.
type GameRecord struct {
	ID          string    `json:"game_id"`
	Season      int       `json:"season"`
	Week        int       `json:"week"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	HomePoints  *int      `json:"home_points"`
	AwayPoints  *int      `json:"away_points"`
	NeutralSite bool      `json:"neutral_site"`
	Date        time.Time `json:"date"`
}

// Margin returns home_points - away_points. Callers must have verified
// both scores are present.
func (g GameRecord) Margin() float64 {
	return float64(*g.HomePoints - *g.AwayPoints)
}

// TalentComposite is a raw, non-negative recruiting composite for one
// team (e.g. a 0-1000 scale). Absence of a composite is not an error.
type TalentComposite struct {
	Team      string  `json:"team"`
	Composite float64 `json:"composite"`
}

// TeamIndex maps canonical team names to dense column indices. The
// ordering is lexicographic on team name so identical input team sets
// always produce identical columns, never map-iteration order.
type TeamIndex struct {
	names []string
	cols  map[string]int
}

// NewTeamIndex builds an index over the given team names. Duplicates
// collapse; ordering is a stable lexicographic sort.
func NewTeamIndex(teams []string) *TeamIndex {
	seen := make(map[string]struct{}, len(teams))
	names := make([]string, 0, len(teams))
	for _, t := range teams {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		names = append(names, t)
	}
	sort.Strings(names)

	cols := make(map[string]int, len(names))
	for i, n := range names {
		cols[n] = i
	}
	return &TeamIndex{names: names, cols: cols}
}

// Col returns the column index for a team name.
func (ti *TeamIndex) Col(team string) (int, bool) {
	c, ok := ti.cols[team]
	return c, ok
}

// Team returns the team name at column i.
func (ti *TeamIndex) Team(i int) string {
	return ti.names[i]
}

// Len returns the number of indexed teams.
func (ti *TeamIndex) Len() int {
	return len(ti.names)
}

// Teams returns the indexed names in column order. The slice is shared;
// callers must not mutate it.
func (ti *TeamIndex) Teams() []string {
	return ti.names
}

// RatingResult is one solved row of the rating table. The field set is
// the integration contract with downstream feature pipelines; a new
// week's solve produces a fresh set, rows are never mutated in place.
type RatingResult struct {
	Team              string    `json:"team" db:"team"`
	Season            int       `json:"season" db:"season"`
	Week              int       `json:"week" db:"week"`
	Rating            float64   `json:"rating" db:"rating"`
	GamesPlayed       int       `json:"games_played" db:"games_played"`
	TalentPrior       float64   `json:"talent_prior" db:"talent_prior"`
	HFA               float64   `json:"hfa" db:"hfa"`
	RatingsSum        float64   `json:"ratings_sum" db:"ratings_sum"`
	RatedByPriorsOnly bool      `json:"rated_by_priors_only" db:"rated_by_priors_only"`
	SolverVersion     string    `json:"solver_version" db:"solver_version"`
	LastUpdated       time.Time `json:"last_updated" db:"last_updated"`
}
