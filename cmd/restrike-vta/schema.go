package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/protocol"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect protocol definition documents",
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Parse a definition document and report problems",
	Long: `Parses the given definition document, or the embedded one when no file
is given, and reports how many definitions it carries.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, source, err := schemaDocument(args)
		if err != nil {
			return err
		}

		defs, err := protocol.ParseSchema(data)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d definitions\n", source, len(defs))
		return nil
	},
}

var schemaShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "List the definitions in a document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, source, err := schemaDocument(args)
		if err != nil {
			return err
		}

		defs, err := protocol.ParseSchema(data)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", source)
		for _, def := range defs {
			fmt.Fprintln(out, def.Key)
			fmt.Fprintf(out, "  streams:  %s\n", strings.Join(def.MainStreams, " "))
			if len(def.RequiredArguments) > 0 {
				fmt.Fprintf(out, "  required: %s\n", strings.Join(def.RequiredArguments, " "))
			}
			if len(def.OptionalArguments) > 0 {
				fmt.Fprintf(out, "  optional: %s\n", strings.Join(def.OptionalArguments, " "))
			}
		}
		return nil
	},
}

func schemaDocument(args []string) ([]byte, string, error) {
	if len(args) == 0 {
		return protocol.DefaultSchema, "embedded schema", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to read schema file: %w", err)
	}
	return data, args[0], nil
}

func init() {
	schemaCmd.AddCommand(schemaCheckCmd)
	schemaCmd.AddCommand(schemaShowCmd)
	rootCmd.AddCommand(schemaCmd)
}
