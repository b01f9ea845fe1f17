package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	valStrict  bool
	valMaxPeak float64
)

var validateCmd = &cobra.Command{
	Use:   "validate <profile.json>",
	Short: "Check a saved load profile for plausibility",
	Long: `Reads a load profile saved by 'profile --format json' (or a bare profile object)
and reports whether it looks plausible.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := readProfile(args[0])
		if err != nil {
			return err
		}
		v := analysis.Validator{MaxPeakKW: cfg.MaxPeakKW}
		if cmd.Flags().Changed("max-peak-kw") {
			v.MaxPeakKW = valMaxPeak
		}
		verdict := v.Validate(p)
		if verdict.IsValid {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s\n", verdict.ReasonCode, verdict.Message)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "⚠ %s: %s\n", verdict.ReasonCode, verdict.Message)
		if valStrict {
			return fmt.Errorf("profile rejected: %s", verdict.ReasonCode)
		}
		return nil
	},
}

// readProfile accepts either a report written by profile or a bare LoadProfile.
func readProfile(path string) (analysis.LoadProfile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return analysis.LoadProfile{}, fmt.Errorf("read profile: %w", err)
	}
	var probe struct {
		Result *struct {
			Profile *analysis.LoadProfile `json:"profile"`
		} `json:"result"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return analysis.LoadProfile{}, fmt.Errorf("parse profile: %w", err)
	}
	if probe.Result != nil && probe.Result.Profile != nil {
		return *probe.Result.Profile, nil
	}
	var p analysis.LoadProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return analysis.LoadProfile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&valStrict, "strict", false, "exit with an error when the profile is rejected")
	validateCmd.Flags().Float64Var(&valMaxPeak, "max-peak-kw", 0, "peak above which the profile is rejected (overrides config)")
}
