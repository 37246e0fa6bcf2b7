package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the service version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", server.ServiceName, server.ServiceVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
