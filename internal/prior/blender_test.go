package prior

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlab/powerrank/internal/ratings"
)

func composites(pairs map[string]float64) []ratings.TalentComposite {
	out := make([]ratings.TalentComposite, 0, len(pairs))
	for _, team := range []string{"Alabama", "Buffalo", "Colorado", "Duke"} {
		if v, ok := pairs[team]; ok {
			out = append(out, ratings.TalentComposite{Team: team, Composite: v})
		}
	}
	return out
}

func TestBlend_ZeroMeanExactly(t *testing.T) {
	bl := NewBlender(4)
	teams := []string{"Alabama", "Buffalo", "Colorado", "Duke"}
	games := map[string]int{"Alabama": 6, "Buffalo": 6, "Colorado": 6, "Duke": 6}

	priors, observed := bl.Blend(teams, composites(map[string]float64{
		"Alabama": 980, "Buffalo": 410, "Colorado": 700, "Duke": 520,
	}), games)

	var sum float64
	for _, t := range teams {
		sum += priors[t]
	}
	assert.InDelta(t, 0, sum, 1e-12)
	assert.True(t, observed["Alabama"])

	// Ordering of composites survives the blend.
	assert.Greater(t, priors["Alabama"], priors["Colorado"])
	assert.Greater(t, priors["Colorado"], priors["Duke"])
	assert.Greater(t, priors["Duke"], priors["Buffalo"])
}

func TestBlend_ShrinksLowSampleTeams(t *testing.T) {
	bl := NewBlender(4)
	teams := []string{"Alabama", "Buffalo", "Colorado", "Duke"}
	raw := map[string]float64{"Alabama": 980, "Buffalo": 410, "Colorado": 700, "Duke": 520}

	full, _ := bl.Blend(teams, composites(raw), map[string]int{
		"Alabama": 8, "Buffalo": 8, "Colorado": 8, "Duke": 8,
	})
	shrunk, _ := bl.Blend(teams, composites(raw), map[string]int{
		"Alabama": 1, "Buffalo": 8, "Colorado": 8, "Duke": 8,
	})

	// Alabama has the strongest composite; with one game its z-score
	// is quartered before recentering, so its prior must fall.
	assert.Less(t, shrunk["Alabama"], full["Alabama"])
}

func TestBlend_MissingCompositeDefaultsToZero(t *testing.T) {
	bl := NewBlender(4)
	teams := []string{"Alabama", "Buffalo", "Colorado"}

	priors, observed := bl.Blend(teams, composites(map[string]float64{
		"Alabama": 900, "Buffalo": 500,
	}), map[string]int{"Alabama": 5, "Buffalo": 5, "Colorado": 5})

	// Colorado played games but has no composite: a logged defect that
	// degrades to a zero prior with no pseudo-observation.
	assert.Equal(t, 0.0, priors["Colorado"])
	assert.False(t, observed["Colorado"])

	// The observed block still centers to zero on its own.
	assert.InDelta(t, 0, priors["Alabama"]+priors["Buffalo"], 1e-12)
}

func TestBlend_NoComposites(t *testing.T) {
	bl := NewBlender(4)
	teams := []string{"Alabama", "Buffalo"}

	priors, observed := bl.Blend(teams, nil, map[string]int{"Alabama": 3, "Buffalo": 3})
	require.Len(t, priors, 2)
	assert.Equal(t, 0.0, priors["Alabama"])
	assert.Equal(t, 0.0, priors["Buffalo"])
	assert.False(t, observed["Alabama"])
}

func TestBlend_UniformCompositesYieldZeroPriors(t *testing.T) {
	bl := NewBlender(4)
	teams := []string{"Alabama", "Buffalo", "Colorado"}

	priors, _ := bl.Blend(teams, composites(map[string]float64{
		"Alabama": 600, "Buffalo": 600, "Colorado": 600,
	}), map[string]int{"Alabama": 6, "Buffalo": 6, "Colorado": 6})

	for _, team := range teams {
		assert.InDelta(t, 0, priors[team], 1e-12)
	}
	assert.False(t, math.IsNaN(priors["Alabama"]))
}
