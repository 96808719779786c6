package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gridironlab/powerrank/internal/ratings"
)

var talentHeader = []string{"team", "composite"}

// LoadTalent reads a talent composite snapshot CSV. Composites must be
// numeric and non-negative; a team simply absent from the file is not
// an error (the blender degrades it to a zero prior).
func LoadTalent(path string) ([]ratings.TalentComposite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open talent snapshot: %w", err)
	}
	defer f.Close()
	return ParseTalent(f)
}

// ParseTalent decodes talent composites from CSV.
func ParseTalent(r io.Reader) ([]ratings.TalentComposite, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read talent header: %w", err)
	}
	if err := checkHeader(header, talentHeader); err != nil {
		return nil, err
	}

	var out []ratings.TalentComposite
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read talent row %d: %w", line, err)
		}

		team := strings.TrimSpace(rec[0])
		if team == "" {
			return nil, &ratings.DataError{Reason: fmt.Sprintf("talent row %d: empty team name", line)}
		}
		composite, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, &ratings.DataError{Reason: fmt.Sprintf("talent row %d: bad composite %q", line, rec[1])}
		}
		if composite < 0 {
			return nil, &ratings.DataError{Reason: fmt.Sprintf("talent row %d: negative composite %g", line, composite)}
		}
		out = append(out, ratings.TalentComposite{Team: team, Composite: composite})
	}
	return out, nil
}
