package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestConfigFromFlags_FileSuppliesSeasonAndWeek(t *testing.T) {
	path := writeConfigFile(t, "season: 2024\nweek: 2\n")

	cmd := newSolveCmd()
	require.NoError(t, cmd.Flags().Set("config", path))

	cfg, err := configFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, 2024, cfg.Season)
	assert.Equal(t, 2, cfg.Week)
	require.NoError(t, cfg.Validate())
}

func TestConfigFromFlags_WeekFlagOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "season: 2024\nweek: 2\n")

	cmd := newSolveCmd()
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("week", "7"))

	cfg, err := configFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Week)
}

func TestConfigFromFlags_SeasonFlagOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "season: 2023\nweek: 9\n")

	cmd := newSolveCmd()
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("season", "2024"))

	cfg, err := configFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, 2024, cfg.Season)
	assert.Equal(t, 9, cfg.Week)
}

func TestConfigFromFlags_KnobFlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, "season: 2024\nweek: 2\nregularization_lambda: 0.01\n")

	cmd := newSolveCmd()
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("lambda", "0.5"))
	require.NoError(t, cmd.Flags().Set("hfa", "3"))

	cfg, err := configFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.RegularizationLambda)
	require.NotNil(t, cfg.HomeFieldOverride)
	assert.Equal(t, 3.0, *cfg.HomeFieldOverride)
}

func TestConfigFromFlags_EmptyTalentDisablesPriors(t *testing.T) {
	cmd := newSolveCmd()
	require.NoError(t, cmd.Flags().Set("season", "2024"))
	require.NoError(t, cmd.Flags().Set("week", "3"))

	cfg, err := configFromFlags(cmd)
	require.NoError(t, err)
	assert.False(t, cfg.PriorsEnabled)
}
