package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gridironlab/powerrank/internal/application"
	"github.com/gridironlab/powerrank/internal/config"
	"github.com/gridironlab/powerrank/internal/library"
	"github.com/gridironlab/powerrank/internal/telemetry"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Solve a range of historical weeks",
		Long:  "Solves every week in the range in order, persisting each rating set; degraded weeks are logged and kept, data-defect weeks are skipped, configuration and solver errors abort.",
		RunE:  runBatch,
	}
	addSolveFlags(cmd)
	cmd.Flags().Int("first-week", 1, "First week to solve (inclusive)")
	cmd.Flags().Int("last-week", 15, "Last week to solve (inclusive)")
	cmd.Flags().Float64("writes-per-second", 0, "Rating library write pacing (0 = unpaced)")
	return cmd
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	input, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	collector := telemetry.NewCollector(prometheus.DefaultRegisterer)
	wps, _ := cmd.Flags().GetFloat64("writes-per-second")
	driver := application.NewBatch(store, collector, wps)

	firstWeek, _ := cmd.Flags().GetInt("first-week")
	lastWeek, _ := cmd.Flags().GetInt("last-week")

	req := application.BatchRequest{
		Season:        cfg.Season,
		FirstWeek:     firstWeek,
		LastWeek:      lastWeek,
		Snapshot:      input,
		ConfigOptions: optionsFromConfig(cfg),
	}

	res, err := driver.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	log.Info().
		Int("season", res.Season).
		Int("solved", res.Solved).
		Int("degraded", res.Degraded).
		Int("skipped", res.Skipped).
		Msg("batch complete")

	outDir, _ := cmd.Flags().GetString("out")
	for _, outcome := range res.Outcomes {
		if outcome.Err != nil || outcome.Result == nil {
			continue
		}
		weekCfg := cfg
		weekCfg.Week = outcome.Week
		if err := emitArtifacts(outDir, weekCfg, outcome.Result); err != nil {
			return err
		}
	}
	return nil
}

// optionsFromConfig re-expresses a flag-derived configuration as the
// per-week options the batch driver applies.
func optionsFromConfig(cfg config.SolveConfig) []config.Option {
	opts := []config.Option{
		config.WithLambda(cfg.RegularizationLambda),
		config.WithHalflife(cfg.RecencyHalflifeDays),
	}
	if cfg.PriorsEnabled {
		opts = append(opts, config.WithPriors(cfg.PriorStrength))
	} else {
		opts = append(opts, func(c *config.SolveConfig) { c.PriorsEnabled = false })
	}
	if cfg.HomeFieldOverride != nil {
		opts = append(opts, config.WithHomeFieldOverride(*cfg.HomeFieldOverride))
	}
	return opts
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored rating set",
		RunE:  runShow,
	}
	cmd.Flags().String("library", "ratings-library", "Rating library directory")
	cmd.Flags().Int("season", 0, "Season")
	cmd.Flags().Int("week", 0, "Week")
	cmd.Flags().String("config-hash", "", "Config hash of the stored solve")
	return cmd
}

func runShow(cmd *cobra.Command, _ []string) error {
	libDir, _ := cmd.Flags().GetString("library")
	season, _ := cmd.Flags().GetInt("season")
	week, _ := cmd.Flags().GetInt("week")
	hash, _ := cmd.Flags().GetString("config-hash")

	store, err := library.NewFileStore(libDir)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(context.Background(), library.Key{Season: season, Week: week, ConfigHash: hash})
	if err != nil {
		return fmt.Errorf("lookup %s: %w", filepath.Join(libDir, hash), err)
	}

	fmt.Printf("%-24s %8s %6s %6s %s\n", "TEAM", "RATING", "GAMES", "PRIOR", "FLAGS")
	for _, r := range entry.Ratings {
		flags := ""
		if r.RatedByPriorsOnly {
			flags = "priors-only"
		}
		fmt.Printf("%-24s %8.3f %6d %6.2f %s\n", r.Team, r.Rating, r.GamesPlayed, r.TalentPrior, flags)
	}
	fmt.Printf("\nHFA %.3f  ratings_sum %.2e  solver %s  stored %s\n",
		entry.Diagnostics.HFA, entry.Diagnostics.RatingsSum,
		ratingsVersion(entry), entry.StoredAt.Format("2006-01-02 15:04"))
	return nil
}

func ratingsVersion(entry *library.Entry) string {
	if len(entry.Ratings) == 0 {
		return "unknown"
	}
	return entry.Ratings[0].SolverVersion
}
