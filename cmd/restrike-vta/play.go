package main

import (
	"github.com/spf13/cobra"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/playback"
)

var playCmd = &cobra.Command{
	Use:   "play <clip>",
	Short: "Play a saved replay clip with the configured player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := initLogger(cfg.Logging)
		return playback.NewPlayer(&cfg.Playback, logger).Play(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}
