package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/license"
)

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Inspect the deployment license",
}

var licenseCheckCmd = &cobra.Command{
	Use:   "check [keyfile]",
	Short: "Validate a license key file",
	Long: `Validates the given license key file, or the one named in the
configuration when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.License.KeyPath == "" {
				return fmt.Errorf("no license key file given and none configured")
			}
			path = cfg.License.KeyPath
		}

		lic, err := license.Check(path)
		if err != nil {
			if lic != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "licensee: %s\n", lic.Licensee)
			}
			return err
		}

		out := cmd.OutOrStdout()
		daysLeft := int(time.Until(lic.Expires.Add(24*time.Hour)).Hours() / 24)
		fmt.Fprintf(out, "licensee: %s\n", lic.Licensee)
		fmt.Fprintf(out, "expires:  %s (%d days left)\n", lic.Expires.Format("2006-01-02"), daysLeft)
		fmt.Fprintln(out, "license key is valid")
		return nil
	},
}

func init() {
	licenseCmd.AddCommand(licenseCheckCmd)
	rootCmd.AddCommand(licenseCmd)
}
