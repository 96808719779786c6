// Package artifacts renders solved rating tables into the columnar
// artifact downstream feature pipelines consume. The CSV schema is the
// sole integration contract; changing a column is a breaking change.
package artifacts

import (
	"fmt"
	"strconv"

	"github.com/gridironlab/powerrank/internal/engine"
	powio "github.com/gridironlab/powerrank/internal/io"
)

// Header is the fixed column order of the ratings artifact.
var Header = []string{
	"team", "season", "week", "rating", "games_played", "talent_prior",
	"hfa", "ratings_sum", "rated_by_priors_only", "solver_version", "last_updated",
}

// Emitter writes rating artifacts to disk.
type Emitter struct{}

// NewEmitter returns an Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// EmitRatingsCSV writes the rating table atomically at path.
func (e *Emitter) EmitRatingsCSV(path string, res *engine.Result) error {
	records := make([][]string, 0, len(res.Ratings))
	for _, r := range res.Ratings {
		records = append(records, []string{
			r.Team,
			strconv.Itoa(r.Season),
			strconv.Itoa(r.Week),
			fmt.Sprintf("%.6f", r.Rating),
			strconv.Itoa(r.GamesPlayed),
			fmt.Sprintf("%.6f", r.TalentPrior),
			fmt.Sprintf("%.4f", r.HFA),
			fmt.Sprintf("%.2e", r.RatingsSum),
			strconv.FormatBool(r.RatedByPriorsOnly),
			r.SolverVersion,
			r.LastUpdated.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	if err := powio.WriteCSVAtomic(path, Header, records); err != nil {
		return fmt.Errorf("failed to emit ratings CSV: %w", err)
	}
	return nil
}

// EmitDiagnosticsJSON writes the solve diagnostics sidecar: run
// metadata, validation findings, and conditioning detail.
func (e *Emitter) EmitDiagnosticsJSON(path string, res *engine.Result) error {
	payload := map[string]any{
		"diagnostics": res.Diagnostics,
		"validation":  res.Report,
	}
	if err := powio.WriteJSONAtomic(path, payload); err != nil {
		return fmt.Errorf("failed to emit diagnostics JSON: %w", err)
	}
	return nil
}
