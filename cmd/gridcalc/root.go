package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cli holds what the subcommands share once the root command has loaded the
// configuration.
type cli struct {
	configFile string
	config     config
	log        *logrus.Logger
}

func newRootCommand() *cobra.Command {
	c := new(cli)
	root := &cobra.Command{
		Use:   "gridcalc",
		Short: "gridcalc evaluates spreadsheet cell formulas",
		Long: `gridcalc evaluates cells holding either an integer or a formula such as
"=A1 * (B2 + 3)" and serves an editable spreadsheet over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, c.configFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c.config, c.log = cfg, logger
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (yaml, toml or json)")
	flags.Int("max-depth", 0, "longest reference chain to follow (default 1000)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text or json)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.evalCommand())
	return root
}
