// Package solver assembles and solves the regularized weighted linear
// system behind the power ratings: one difference-encoded row per game,
// a dominant zero-sum normalization row, and optional talent-prior
// pseudo-observations, solved by ridge-regularized normal equations.
package solver

import (
	"fmt"

	"github.com/gridironlab/powerrank/internal/config"
	"github.com/gridironlab/powerrank/internal/matrix"
	"github.com/gridironlab/powerrank/internal/ratings"
)

// System is the canonical output of the design matrix builder and the
// only input type the ridge solver accepts. A is dense row-major;
// game rows come first, then the normalization row, then prior rows.
type System struct {
	A *matrix.Dense
	B []float64
	W []float64

	Index *ratings.TeamIndex

	// HFACol is the home-field-advantage column, or -1 when the caller
	// supplied an override and the column was removed from the
	// unknowns.
	HFACol int

	// HomeFieldOverride echoes the fixed HFA when HFACol == -1.
	HomeFieldOverride *float64

	GameRows int
	NormRow  int

	// Margins and HFAIndicator are per-game-row views of the inputs,
	// kept so residual and correlation diagnostics do not need the
	// original game slice.
	Margins      []float64
	HFAIndicator []float64
}

// Teams returns the number of team columns.
func (s *System) Teams() int { return s.Index.Len() }

// BuilderInput carries everything one matrix construction needs.
type BuilderInput struct {
	Index   *ratings.TeamIndex
	Games   []ratings.GameRecord
	Weights []float64

	// Priors maps team to its blended prior; ObservedPrior marks the
	// teams that actually carry a composite and therefore get a
	// pseudo-row. Both nil when priors are disabled.
	Priors        map[string]float64
	ObservedPrior map[string]bool
	PriorStrength float64

	HomeFieldOverride *float64
}

// Build assembles the sparse linear system:
//
//	game row g:  A[g,home] = +1, A[g,away] = -1, A[g,hfa] = 1-neutral
//	             b[g] = home_points - away_points
//	norm row:    ones over team columns, b = 0, weight dominant
//	prior row t: A[r,t] = 1, b[r] = prior[t], weight = prior_strength
//
// When HomeFieldOverride is set the HFA column is omitted and the fixed
// HFA contribution moves to the target side of each game row.
func Build(in BuilderInput) (*System, error) {
	nTeams := in.Index.Len()
	if nTeams < 2 {
		return nil, ratings.NewConfigurationError("teams",
			fmt.Sprintf("need at least 2 teams, have %d", nTeams))
	}
	if len(in.Weights) != len(in.Games) {
		return nil, ratings.NewConfigurationError("weights",
			fmt.Sprintf("weight vector length %d against %d games", len(in.Weights), len(in.Games)))
	}

	priorTeams := priorRowTeams(in)

	// An all-neutral schedule leaves the HFA column identically zero,
	// which no amount of team-block regularization can rescue; drop
	// the column and fix HFA at zero in that case.
	anyHome := false
	for _, g := range in.Games {
		if !g.NeutralSite {
			anyHome = true
			break
		}
	}

	rows := len(in.Games) + 1 + len(priorTeams)
	cols := nTeams
	hfaCol := -1
	if in.HomeFieldOverride == nil && anyHome {
		hfaCol = nTeams
		cols++
	}

	a, err := matrix.NewDense(rows, cols)
	if err != nil {
		return nil, err
	}
	sys := &System{
		A:                 a,
		B:                 make([]float64, rows),
		W:                 make([]float64, rows),
		Index:             in.Index,
		HFACol:            hfaCol,
		HomeFieldOverride: in.HomeFieldOverride,
		GameRows:          len(in.Games),
		NormRow:           len(in.Games),
		Margins:           make([]float64, len(in.Games)),
		HFAIndicator:      make([]float64, len(in.Games)),
	}

	for g, game := range in.Games {
		hi, ok := in.Index.Col(game.HomeTeam)
		if !ok {
			return nil, &ratings.DataError{GameID: game.ID, Reason: "home team not in index: " + game.HomeTeam}
		}
		ai, ok := in.Index.Col(game.AwayTeam)
		if !ok {
			return nil, &ratings.DataError{GameID: game.ID, Reason: "away team not in index: " + game.AwayTeam}
		}

		a.Set(g, hi, 1)
		a.Set(g, ai, -1)

		// Neutral-site games get hard-zero HFA credit.
		ind := 1.0
		if game.NeutralSite {
			ind = 0
		}
		sys.HFAIndicator[g] = ind

		margin := game.Margin()
		sys.Margins[g] = margin

		switch {
		case hfaCol >= 0:
			a.Set(g, hfaCol, ind)
			sys.B[g] = margin
		case in.HomeFieldOverride != nil:
			// Fixed HFA moves to the target side.
			sys.B[g] = margin - *in.HomeFieldOverride*ind
		default:
			sys.B[g] = margin
		}
		sys.W[g] = in.Weights[g]
	}

	// The normalization row anchors the translation-invariant scale.
	// Its weight dominates every other row combined so it behaves as a
	// hard constraint, not a soft preference.
	var weightSum float64
	for _, w := range in.Weights {
		weightSum += w
	}
	weightSum += float64(len(priorTeams)) * in.PriorStrength
	for c := 0; c < nTeams; c++ {
		a.Set(sys.NormRow, c, 1)
	}
	sys.B[sys.NormRow] = 0
	sys.W[sys.NormRow] = weightSum * config.NormalizationWeightMultiple

	for i, team := range priorTeams {
		row := sys.NormRow + 1 + i
		col, _ := in.Index.Col(team)
		a.Set(row, col, 1)
		sys.B[row] = in.Priors[team]
		sys.W[row] = in.PriorStrength
	}

	return sys, nil
}

// priorRowTeams selects, in column order, the teams that receive a
// pseudo-observation: those with an observed composite when priors are
// enabled. Teams without talent data stay out (prior 0 at zero
// effective weight).
func priorRowTeams(in BuilderInput) []string {
	if in.Priors == nil || in.PriorStrength <= 0 {
		return nil
	}
	teams := make([]string, 0, len(in.Priors))
	for _, t := range in.Index.Teams() {
		if in.ObservedPrior[t] {
			teams = append(teams, t)
		}
	}
	return teams
}
