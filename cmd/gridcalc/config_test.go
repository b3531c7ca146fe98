package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crhntr/gridcalc"
)

func configFor(t *testing.T, args ...string) (config, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	flags := cmd.Flags()
	flags.String("config", "", "")
	flags.Int("columns", gridcalc.DefaultColumns, "")
	flags.Int("rows", gridcalc.DefaultRows, "")
	flags.String("addr", defaultAddr, "")
	flags.Int("max-depth", 0, "")
	flags.String("log-level", "info", "")
	flags.String("log-format", "text", "")
	require.NoError(t, flags.Parse(args))
	path, err := flags.GetString("config")
	require.NoError(t, err)
	return loadConfig(cmd, path)
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := configFor(t)
		require.NoError(t, err)
		assert.Equal(t, config{
			Columns:   gridcalc.DefaultColumns,
			Rows:      gridcalc.DefaultRows,
			Addr:      defaultAddr,
			MaxDepth:  0,
			LogLevel:  "info",
			LogFormat: "text",
		}, cfg)
	})

	t.Run("flags", func(t *testing.T) {
		cfg, err := configFor(t, "--columns", "3", "--rows", "4", "--addr", ":9090", "--max-depth", "7")
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Columns)
		assert.Equal(t, 4, cfg.Rows)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 7, cfg.MaxDepth)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("GRIDCALC_ROWS", "30")
		t.Setenv("GRIDCALC_LOG_LEVEL", "debug")
		cfg, err := configFor(t)
		require.NoError(t, err)
		assert.Equal(t, 30, cfg.Rows)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv("GRIDCALC_ROWS", "30")
		cfg, err := configFor(t, "--rows", "5")
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Rows)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gridcalc.yaml")
		require.NoError(t, os.WriteFile(path, []byte("columns: 26\nmax_depth: 50\nlog_format: json\n"), 0o600))
		cfg, err := configFor(t, "--config", path)
		require.NoError(t, err)
		assert.Equal(t, 26, cfg.Columns)
		assert.Equal(t, 50, cfg.MaxDepth)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := configFor(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "read config")
	})

	t.Run("empty sheet", func(t *testing.T) {
		_, err := configFor(t, "--rows", "0")
		assert.ErrorContains(t, err, "at least one column and one row")
	})

	t.Run("negative max depth", func(t *testing.T) {
		_, err := configFor(t, "--max-depth", "-1")
		assert.ErrorContains(t, err, "max depth must not be negative")
	})
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config{LogLevel: "warn", LogFormat: "json"}, os.Stderr)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	_, err = newLogger(config{LogLevel: "loud", LogFormat: "text"}, os.Stderr)
	assert.Error(t, err)

	_, err = newLogger(config{LogLevel: "info", LogFormat: "xml"}, os.Stderr)
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}
