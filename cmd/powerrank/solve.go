package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gridironlab/powerrank/internal/artifacts"
	"github.com/gridironlab/powerrank/internal/config"
	"github.com/gridironlab/powerrank/internal/engine"
	"github.com/gridironlab/powerrank/internal/library"
	"github.com/gridironlab/powerrank/internal/ratings"
	"github.com/gridironlab/powerrank/internal/snapshot"
)

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve one (season, week) rating table",
		Long:  "Builds the design matrix from a games snapshot, solves the ridge system, validates, and emits the rating artifact.",
		RunE:  runSolve,
	}
	addSolveFlags(cmd)
	cmd.Flags().Int("week", 0, "Cutoff week (inclusive)")
	return cmd
}

func runSolve(cmd *cobra.Command, _ []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	input, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	res, err := eng.Solve(input)
	if err != nil {
		return fmt.Errorf("solve %d week %d: %w", cfg.Season, cfg.Week, err)
	}

	log.Info().
		Int("season", cfg.Season).
		Int("week", cfg.Week).
		Int("teams", res.Diagnostics.TeamsRated).
		Int("games", res.Diagnostics.GamesIncluded).
		Float64("hfa", res.Diagnostics.HFA).
		Str("status", string(res.Report.Status)).
		Msg("solve complete")

	outDir, _ := cmd.Flags().GetString("out")
	if err := emitArtifacts(outDir, cfg, res); err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		key := library.Key{Season: cfg.Season, Week: cfg.Week, ConfigHash: cfg.Hash()}
		if err := store.Put(context.Background(), library.NewEntry(key, res, time.Now())); err != nil {
			return fmt.Errorf("failed to persist rating set: %w", err)
		}
	}
	return nil
}

func configFromFlags(cmd *cobra.Command) (config.SolveConfig, error) {
	var (
		cfg config.SolveConfig
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return config.SolveConfig{}, err
		}
	} else {
		season, _ := cmd.Flags().GetInt("season")
		cfg, err = config.New(season, 0)
		if err != nil {
			return config.SolveConfig{}, err
		}
	}

	if season, _ := cmd.Flags().GetInt("season"); season > 0 {
		cfg.Season = season
	}
	// Week 0 is a valid cutoff, so only an explicitly passed flag may
	// replace a file-supplied week.
	if cmd.Flags().Changed("week") {
		week, _ := cmd.Flags().GetInt("week")
		cfg.Week = week
	}
	if lambda, _ := cmd.Flags().GetFloat64("lambda"); lambda > 0 {
		cfg.RegularizationLambda = lambda
	}
	if ps, _ := cmd.Flags().GetFloat64("prior-strength"); ps > 0 {
		cfg.PriorStrength = ps
	}
	if hfa, _ := cmd.Flags().GetFloat64("hfa"); hfa >= 0 {
		cfg.HomeFieldOverride = &hfa
	}
	if hl, _ := cmd.Flags().GetFloat64("halflife"); hl > 0 {
		cfg.RecencyHalflifeDays = hl
	}
	if talent, _ := cmd.Flags().GetString("talent"); talent == "" {
		cfg.PriorsEnabled = false
	}
	return cfg, nil
}

func loadSnapshot(cmd *cobra.Command) (engine.Input, error) {
	gamesPath, _ := cmd.Flags().GetString("games")
	games, err := snapshot.LoadGames(gamesPath)
	if err != nil {
		return engine.Input{}, err
	}

	var talent []ratings.TalentComposite
	if talentPath, _ := cmd.Flags().GetString("talent"); talentPath != "" {
		talent, err = snapshot.LoadTalent(talentPath)
		if err != nil {
			return engine.Input{}, err
		}
	}
	return engine.Input{Games: games, Talent: talent}, nil
}

func emitArtifacts(outDir string, cfg config.SolveConfig, res *engine.Result) error {
	emitter := artifacts.NewEmitter()
	base := fmt.Sprintf("ratings_%d_w%02d", cfg.Season, cfg.Week)
	if err := emitter.EmitRatingsCSV(filepath.Join(outDir, base+".csv"), res); err != nil {
		return err
	}
	return emitter.EmitDiagnosticsJSON(filepath.Join(outDir, base+"_diagnostics.json"), res)
}
