package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/config"
)

const defaultConfigPath = "configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "restrike-vta",
	Short: "PSS telemetry ingestion service for taekwondo video replay",
	Long: `reStrike VTA ingests scoring telemetry from taekwondo protector and
scoring systems (PSS) over UDP, decodes it into typed events, and drives
the replay workflow: match recording, live match state, and OBS replay
clips cut on scoring actions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to configuration file")
}
