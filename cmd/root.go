package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confusedbuffalo/phone-report/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "phone-report",
	Short: "Validate and fix phone number tags on OSM features",
	Long:  "Streams the phone-bearing features of a subdivision, validates and normalizes every number, writes a report of invalid features, and uploads the provably-safe corrections as changesets.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
