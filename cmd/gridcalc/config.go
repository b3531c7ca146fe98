package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crhntr/gridcalc"
)

const (
	envPrefix = "GRIDCALC"

	cfgKeyColumns   = "columns"
	cfgKeyRows      = "rows"
	cfgKeyAddr      = "addr"
	cfgKeyMaxDepth  = "max_depth"
	cfgKeyLogLevel  = "log_level"
	cfgKeyLogFormat = "log_format"

	defaultAddr = ":8080"
)

type config struct {
	Columns   int
	Rows      int
	Addr      string
	MaxDepth  int
	LogLevel  string
	LogFormat string
}

// loadConfig reads settings with flag > environment > config file > default
// precedence. A config file is only read when path is set.
func loadConfig(cmd *cobra.Command, path string) (config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyColumns, gridcalc.DefaultColumns)
	v.SetDefault(cfgKeyRows, gridcalc.DefaultRows)
	v.SetDefault(cfgKeyAddr, defaultAddr)
	v.SetDefault(cfgKeyMaxDepth, 0)
	v.SetDefault(cfgKeyLogLevel, logrus.InfoLevel.String())
	v.SetDefault(cfgKeyLogFormat, "text")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		cfgKeyColumns:   "columns",
		cfgKeyRows:      "rows",
		cfgKeyAddr:      "addr",
		cfgKeyMaxDepth:  "max-depth",
		cfgKeyLogLevel:  "log-level",
		cfgKeyLogFormat: "log-format",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config{}, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := config{
		Columns:   v.GetInt(cfgKeyColumns),
		Rows:      v.GetInt(cfgKeyRows),
		Addr:      v.GetString(cfgKeyAddr),
		MaxDepth:  v.GetInt(cfgKeyMaxDepth),
		LogLevel:  v.GetString(cfgKeyLogLevel),
		LogFormat: v.GetString(cfgKeyLogFormat),
	}
	if cfg.Columns < 1 || cfg.Rows < 1 {
		return config{}, fmt.Errorf("sheet must have at least one column and one row got %d columns and %d rows", cfg.Columns, cfg.Rows)
	}
	if cfg.MaxDepth < 0 {
		return config{}, fmt.Errorf("max depth must not be negative")
	}
	return cfg, nil
}

func newLogger(cfg config, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	switch cfg.LogFormat {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q expected text or json", cfg.LogFormat)
	}
	return logger, nil
}
