package cmd

import (
	"fmt"
	"strings"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/WattMatt/greencalc-sa-sub011/internal/parser"
	"github.com/WattMatt/greencalc-sa-sub011/internal/utils"
	"github.com/spf13/cobra"
)

var detJSON bool

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Show the detected layout of a delimited export without building a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := parser.ReadTable(args[0], parser.Options{})
		if err != nil {
			return err
		}
		if tbl.Detection == nil {
			return fmt.Errorf("detect works on delimited text exports; use 'profile' for %s", args[0])
		}
		if detJSON {
			b, err := utils.PrettyJSON(tbl.Detection)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), detectionText(args[0], tbl.Detection))
		return nil
	},
}

func detectionText(name string, d *analysis.FormatDetectionResult) string {
	var b strings.Builder
	l := d.Layout
	b.WriteString("[FORMAT]\n")
	b.WriteString(fmt.Sprintf("File: %s\n", name))
	b.WriteString(fmt.Sprintf("Format: %s (confidence %.2f)\n", l.Format, l.Confidence))
	b.WriteString(fmt.Sprintf("Delimiter: %s\n", l.Delimiter))
	b.WriteString(fmt.Sprintf("Header row: %d\n", l.HeaderRowIndex))
	if d.MeterName != "" {
		b.WriteString(fmt.Sprintf("Meter: %s\n", d.MeterName))
	}
	if d.PreambleStart != nil && d.PreambleEnd != nil {
		b.WriteString(fmt.Sprintf("Period: %s to %s\n", d.PreambleStart, d.PreambleEnd))
	}

	b.WriteString("\n[COLUMNS]\n")
	for _, c := range []struct {
		label string
		idx   int
	}{
		{"date", l.DateColumn},
		{"time", l.TimeColumn},
		{"value", l.ValueColumn},
		{"meter", l.MeterIDColumn},
	} {
		if c.idx < 0 {
			continue
		}
		header := ""
		if c.idx < len(d.Headers) {
			header = d.Headers[c.idx]
		}
		b.WriteString(fmt.Sprintf("- %s: #%d %s\n", c.label, c.idx, header))
	}

	b.WriteString("\n[SUGGESTIONS]\n")
	b.WriteString(fmt.Sprintf("- date order: %s\n", d.SuggestedDateOrder))
	b.WriteString(fmt.Sprintf("- unit: %s\n", d.SuggestedUnit))
	b.WriteString(fmt.Sprintf("- negative values: %t\n", d.HasNegativeValues))
	b.WriteString(fmt.Sprintf("- cumulative: %t\n", d.IsCumulative))
	for _, w := range d.Warnings {
		b.WriteString(fmt.Sprintf("⚠ %s\n", w))
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().BoolVar(&detJSON, "json", false, "print the detection result as JSON")
}
