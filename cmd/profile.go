package cmd

import (
	"fmt"

	"github.com/WattMatt/greencalc-sa-sub011/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	prFlags      profileFlags
	prOutputPath string
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Build a weekday/weekend hourly load profile from a CSV/TSV/XLSX export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := prFlags.outputFormat(cmd)
		if err != nil {
			return err
		}
		rep, err := prFlags.buildReport(cmd, args[0], uuid.NewString())
		if err != nil {
			return err
		}
		out, err := render(rep, format)
		if err != nil {
			return err
		}

		if prOutputPath != "" {
			if err := utils.SafeWriteFile(prOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", prOutputPath)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		}
		if prFlags.strict && !rep.Verdict.IsValid {
			return errRejected(rep)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	prFlags.register(profileCmd)
	profileCmd.Flags().StringVarP(&prOutputPath, "output", "o", "", "optional path to write the profile")
}
