package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags clears values and Changed state that persist across Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command and returns its stdout.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeVendorExport(t *testing.T, path, value string) {
	t.Helper()
	var b strings.Builder
	b.WriteString(",\"Main Incomer\",2024-01-01,2024-01-31\n")
	b.WriteString("RDate,RTime,kWh+\n")
	for m := 0; m < 24*60; m += 30 {
		fmt.Fprintf(&b, "2024/01/02,%02d:%02d,%s\n", m/60, m%60, value)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
}

func TestCLI_ProfileMarkdown(t *testing.T) {
	home := isolateHome(t)
	src := filepath.Join(home, "site.csv")
	writeVendorExport(t, src, "0.5")

	out := runCmd(t, "profile", src)
	for _, want := range []string{"[LOAD PROFILE]", "File: site.csv", "Interval: 30 min", "- energy: 24.00 kWh", "✓ ok:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCLI_ProfileJSONToFile(t *testing.T) {
	home := isolateHome(t)
	src := filepath.Join(home, "site.csv")
	writeVendorExport(t, src, "0.5")
	dest := filepath.Join(home, "site.json")

	out := runCmd(t, "profile", src, "--format", "json", "-o", dest)
	if !strings.Contains(out, "✓ Wrote profile to") {
		t.Fatalf("missing confirmation: %s", out)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var rep analysis.Report
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.RunID == "" || rep.Result.Profile.TotalKwh != 24 || !rep.Verdict.IsValid {
		t.Fatalf("unexpected report: %+v", rep)
	}

	// the saved report validates on its own
	out = runCmd(t, "validate", dest)
	if !strings.Contains(out, "✓ ok") {
		t.Fatalf("expected ok verdict: %s", out)
	}
}

func TestCLI_ProfileStrictRejectsFlat(t *testing.T) {
	home := isolateHome(t)
	src := filepath.Join(home, "flat.csv")
	var b strings.Builder
	b.WriteString("Timestamp,kW\n")
	// a weekday and a weekend day with the same constant reading
	for _, d := range []string{"2024-01-05", "2024-01-06"} {
		for h := 0; h < 24; h++ {
			fmt.Fprintf(&b, "%s %02d:00,5\n", d, h)
		}
	}
	if err := os.WriteFile(src, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := execCmd(t, "profile", src, "--strict")
	if err == nil {
		t.Fatalf("expected strict failure, got output:\n%s", out)
	}
	if !strings.Contains(err.Error(), "flat_profile") {
		t.Fatalf("unexpected error: %v", err)
	}
	// without --strict the verdict is advisory
	if _, err := execCmd(t, "profile", src); err != nil {
		t.Fatalf("non-strict run failed: %v", err)
	}
}

func TestCLI_ProfileExplicitColumnsAndUnit(t *testing.T) {
	home := isolateHome(t)
	src := filepath.Join(home, "amps.csv")
	var b strings.Builder
	b.WriteString("When;Reading;Note\n")
	for h := 0; h < 24; h++ {
		fmt.Fprintf(&b, "02/01/2024 %02d:00;10;x\n", h)
	}
	if err := os.WriteFile(src, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := runCmd(t, "profile", src, "--date-col", "0", "--value-col", "1", "--unit", "A", "--voltage", "230", "--power-factor", "1", "--format", "json")
	var rep analysis.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if rep.Result.Class != analysis.ClassPower || rep.Result.Roles.Value.Source != analysis.SourceExplicit {
		t.Fatalf("unexpected diagnostics: %+v", rep.Result)
	}
	if got := rep.Result.Profile.WeekdayProfile[0]; got < 3.97 || got > 3.99 {
		t.Fatalf("expected ~3.98 kW, got %v", got)
	}
}

func TestCLI_ProfileMappingFile(t *testing.T) {
	home := isolateHome(t)
	src := filepath.Join(home, "export.csv")
	var b strings.Builder
	b.WriteString("Col A,Col B,Col C\n")
	for h := 0; h < 24; h++ {
		fmt.Fprintf(&b, "99,2024-01-02 %02d:00,%d\n", h, h+1)
	}
	if err := os.WriteFile(src, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mapping := filepath.Join(home, "mapping.yaml")
	doc := "columns:\n  - index: 0\n    name: Col A\n    data_type: skip\n  - index: 1\n    name: Col B\n    data_type: date\n    date_format: YYYY-MM-DD HH:mm\n  - index: 2\n    name: Energy kWh\n    data_type: general\n"
	if err := os.WriteFile(mapping, []byte(doc), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}

	out := runCmd(t, "profile", src, "--mapping", mapping, "--format", "json")
	var rep analysis.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if rep.Result.Roles.Date.Index != 1 || rep.Result.Roles.Value.Index != 2 {
		t.Fatalf("mapping not applied: %+v", rep.Result.Roles)
	}
	if rep.Result.Profile.TotalKwh != 300 {
		t.Fatalf("expected 300 kWh, got %v", rep.Result.Profile.TotalKwh)
	}

	bad := filepath.Join(home, "bad.yaml")
	_ = os.WriteFile(bad, []byte("columns:\n  - index: 0\n    data_type: number\n"), 0o644)
	if _, err := execCmd(t, "profile", src, "--mapping", bad); err == nil {
		t.Fatalf("expected error for unsupported data type")
	}
}

func TestCLI_ProfileUnsupportedFile(t *testing.T) {
	home := isolateHome(t)
	src := filepath.Join(home, "notes.docx")
	_ = os.WriteFile(src, []byte("x"), 0o644)
	if _, err := execCmd(t, "profile", src); err == nil || !strings.Contains(err.Error(), "unsupported table format") {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestCLI_Detect(t *testing.T) {
	home := isolateHome(t)
	src := filepath.Join(home, "site.csv")
	writeVendorExport(t, src, "0.5")

	out := runCmd(t, "detect", src)
	for _, want := range []string{"Format: vendor-scada (confidence 0.95)", "Meter: Main Incomer", "- value: #2 kWh+", "- date order: YMD"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out = runCmd(t, "detect", src, "--json")
	var det analysis.FormatDetectionResult
	if err := json.Unmarshal([]byte(out), &det); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if det.Layout.HeaderRowIndex != 1 {
		t.Fatalf("unexpected header row: %d", det.Layout.HeaderRowIndex)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)

	runCmd(t, "config", "set", "voltage_v", "230")
	runCmd(t, "config", "set", "date_order", "MM/DD/YYYY")
	if _, err := os.Stat(filepath.Join(home, ".loadprofile", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "voltage_v: 230.0") || !strings.Contains(out, "date_order: MDY") {
		t.Fatalf("unexpected config:\n%s", out)
	}
	if _, err := execCmd(t, "config", "set", "power_factor", "1.5"); err == nil {
		t.Fatalf("expected invalid power factor error")
	}
	if _, err := execCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCLI_ValidateBareProfile(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, "empty.json")
	b, _ := json.Marshal(analysis.EmptyProfile())
	_ = os.WriteFile(path, b, 0o644)

	out := runCmd(t, "validate", path)
	if !strings.Contains(out, "⚠ no_data") {
		t.Fatalf("expected no_data verdict: %s", out)
	}
	if _, err := execCmd(t, "validate", path, "--strict"); err == nil {
		t.Fatalf("expected strict failure")
	}
}
