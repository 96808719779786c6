package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "powerrank"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "College football power ratings from game results and talent composites",
		Version: version,
		Long: `powerrank solves a regularized weighted linear system over a season's
game results, anchored by a zero-sum constraint and optionally seeded
with recruiting-talent priors, producing one power rating per team plus
a global home-field advantage estimate.`,
	}

	rootCmd.AddCommand(newSolveCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newShowCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// addSolveFlags registers the configuration surface shared by solve
// and batch.
func addSolveFlags(cmd *cobra.Command) {
	cmd.Flags().String("games", "games.csv", "Games snapshot CSV path")
	cmd.Flags().String("talent", "", "Talent composite CSV path (empty disables priors)")
	cmd.Flags().String("config", "", "YAML config file (flags override)")
	cmd.Flags().Int("season", 0, "Season to solve")
	cmd.Flags().Float64("lambda", 0, "Ridge regularization strength (0 = default)")
	cmd.Flags().Float64("prior-strength", 0, "Talent prior pseudo-observation weight (0 = default)")
	cmd.Flags().Float64("hfa", -1, "Fixed home-field advantage override (-1 = estimate)")
	cmd.Flags().Float64("halflife", 0, "Recency decay halflife in days (0 = default)")
	cmd.Flags().String("out", "out/ratings", "Artifact output directory")
	cmd.Flags().String("library", "", "Rating library directory (empty disables persistence)")
	cmd.Flags().String("library-dsn", "", "Postgres DSN for the rating library (overrides --library)")
	cmd.Flags().String("library-redis", "", "Redis address for the rating library (overrides --library)")
}
