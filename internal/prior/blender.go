// Package prior converts raw recruiting-talent composites into
// zero-centered, sample-shrunk rating priors. A prior enters the solve
// as a pseudo-observation, so the blend has to be centered exactly:
// any residual mean would leak straight into the zero-sum constraint.
package prior

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/gridironlab/powerrank/internal/ratings"
)

// Blender shrinks talent z-scores toward zero for teams that have not
// played enough games to trust the composite, then re-centers.
type Blender struct {
	// MinGamesForTrust is the games-played count at which a team's
	// talent signal is taken at full strength. Below it the z-score is
	// scaled by games/MinGamesForTrust.
	MinGamesForTrust int
}

// NewBlender returns a Blender with the given trust threshold.
func NewBlender(minGamesForTrust int) *Blender {
	return &Blender{MinGamesForTrust: minGamesForTrust}
}

// Blend computes one prior per team in the solve. teams is the full
// roster of the solve (the population the blend is centered over);
// gamesPlayed maps team to included-game count. Teams absent from
// composites receive prior 0: for a team that has played games this is
// a data defect worth logging, but it degrades gracefully rather than
// failing the solve.
//
// The returned prior map carries an entry for every team in teams and
// sums to exactly zero. The second return reports which teams actually
// had a composite: only those carry a pseudo-observation downstream,
// the rest are prior 0 at zero effective weight.
func (bl *Blender) Blend(teams []string, composites []ratings.TalentComposite, gamesPlayed map[string]int) (map[string]float64, map[string]bool) {
	raw := make(map[string]float64, len(composites))
	for _, tc := range composites {
		raw[tc.Team] = tc.Composite
	}

	// Population stats over teams that actually have a composite.
	var sum, count float64
	for _, t := range teams {
		if v, ok := raw[t]; ok {
			sum += v
			count++
		}
	}
	priors := make(map[string]float64, len(teams))
	observed := make(map[string]bool, len(teams))
	for _, t := range teams {
		_, observed[t] = raw[t]
	}
	if count == 0 {
		for _, t := range teams {
			priors[t] = 0
		}
		return priors, observed
	}
	mean := sum / count

	var sqSum float64
	for _, t := range teams {
		if v, ok := raw[t]; ok {
			d := v - mean
			sqSum += d * d
		}
	}
	std := math.Sqrt(sqSum / count)

	for _, t := range teams {
		v, ok := raw[t]
		if !ok {
			if gamesPlayed[t] > 0 {
				log.Warn().
					Str("team", t).
					Int("games_played", gamesPlayed[t]).
					Msg("missing talent composite for active team, defaulting prior to 0")
			}
			priors[t] = 0
			continue
		}
		z := 0.0
		if std > 0 {
			z = (v - mean) / std
		}
		shrink := 1.0
		if bl.MinGamesForTrust > 0 {
			shrink = math.Min(1, float64(gamesPlayed[t])/float64(bl.MinGamesForTrust))
		}
		priors[t] = z * shrink
	}

	// Re-center the shrunk values to exact zero mean. Centering runs
	// over composite-bearing teams only: teams with no talent data
	// must stay at exactly 0 (they carry no pseudo-observation), and
	// the roster-wide mean is still exactly zero that way.
	recenter(teams, raw, priors)
	return priors, observed
}

func recenter(teams []string, raw, priors map[string]float64) {
	var sum, count float64
	for _, t := range teams {
		if _, ok := raw[t]; ok {
			sum += priors[t]
			count++
		}
	}
	if count == 0 {
		return
	}
	mean := sum / count
	for _, t := range teams {
		if _, ok := raw[t]; ok {
			priors[t] -= mean
		}
	}
}
