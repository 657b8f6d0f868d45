package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/config"
	"github.com/vaersinsight/vaersinsight/pkg/factstore"
	"github.com/vaersinsight/vaersinsight/pkg/logging"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
)

var (
	configFile string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vaers",
	Short: "VAERS adverse-event extraction, outcome model and dashboard",
	Long: `vaers loads the yearly VAERS data, symptom and vaccine files into a single
report table, trains a random-forest model of the report outcome, and serves
filtered aggregate views and live predictions over that table.

Settings come from the environment, optionally layered over a YAML file
given with --config.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		logger = logger.With(zap.String("environment", cfg.Environment))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(predictCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the configured fact store
func openStore(ctx context.Context) (*factstore.Store, error) {
	store, err := factstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open fact store: %w", err)
	}
	return store, nil
}

func trainerOptions() mlmodel.Options {
	return mlmodel.Options{
		ModelPath: cfg.ModelPath,
		Trees:     cfg.TreeCount,
		MaxDepth:  cfg.MaxDepth,
		Seed:      cfg.RandomSeed,
		TestSize:  cfg.TestSize,
	}
}
