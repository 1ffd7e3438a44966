package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/dca/config"
	"github.com/rustyeddy/dca/logger"
)

var rootCmd = &cobra.Command{
	Use:   "dca",
	Short: "DCA order ladder calculator for leveraged positions",
	Long: `dca computes Dollar-Cost-Averaging order ladders: a base order followed by
safety orders at widening price deviations, sized to the exchange's lot-size
rules, with running averages, margins and take-profit targets.

It provides tools for:
  - Computing ladders from a config file or flags
  - Importing exchange trading rules and leverage brackets into a local cache
  - Checking ladders against margin, deviation and leverage-bracket limits
  - Journaling computed ladders to SQLite or CSV
  - Serving ladders over HTTP`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var (
	cfgFile  string
	logLevel string

	cfg *config.Config
	log *zap.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "ladder config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides log.level from the config")
}

// setup loads the config and builds the logger for every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		c, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
	} else {
		cfg = config.Default()
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	l, err := logger.New(level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	log = l
	return nil
}
