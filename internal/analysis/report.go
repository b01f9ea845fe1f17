package analysis

import (
	"fmt"
	"strings"
)

// Report bundles a pipeline result with its verdict for display.
type Report struct {
	Name    string            `json:"name,omitempty"`
	RunID   string            `json:"runId,omitempty"`
	Sheet   string            `json:"sheet,omitempty"`
	Result  Result            `json:"result"`
	Verdict ValidationVerdict `json:"verdict"`

	// Warnings are detection notes about the source file.
	Warnings []string `json:"warnings,omitempty"`
	Headers  []string `json:"-"`
}

// NewReport runs validation on res with v and wraps both.
func NewReport(name string, headers []string, res Result, v Validator) *Report {
	return &Report{Name: name, Result: res, Verdict: v.Validate(res.Profile), Headers: headers}
}

// Markdown renders a compact, human-readable summary.
func (r *Report) Markdown() string {
	var b strings.Builder
	p := r.Result.Profile
	b.WriteString("[LOAD PROFILE]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Sheet != "" {
		b.WriteString(fmt.Sprintf("Sheet: %s\n", r.Sheet))
	}
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}
	if r.Result.ParseErrors > 0 {
		b.WriteString(fmt.Sprintf("Rows: %d (parsed %d, skipped %d)\n", r.Result.RowsSeen, p.DataPoints, r.Result.ParseErrors))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Result.RowsSeen))
	}
	if p.DateRangeStart != nil && p.DateRangeEnd != nil {
		b.WriteString(fmt.Sprintf("Period: %s to %s (%d weekdays, %d weekend days)\n", p.DateRangeStart, p.DateRangeEnd, p.WeekdayDays, p.WeekendDays))
	}
	b.WriteString(fmt.Sprintf("Interval: %d min\n", p.DetectedIntervalMinutes))
	if r.Result.Unit != "" {
		b.WriteString(fmt.Sprintf("Unit: %s (%s)\n", r.Result.Unit, r.Result.Class))
	}

	b.WriteString("\n[COLUMNS]\n")
	for _, c := range []struct {
		label string
		role  ColumnRole
	}{
		{"date", r.Result.Roles.Date},
		{"time", r.Result.Roles.Time},
		{"value", r.Result.Roles.Value},
		{"meter", r.Result.Roles.MeterID},
	} {
		if !c.role.Resolved() {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s (#%d, %s)\n", c.label, headerName(r.Headers, c.role.Index), c.role.Index, c.role.Source))
	}

	b.WriteString("\n[TOTALS]\n")
	b.WriteString(fmt.Sprintf("- energy: %.2f kWh\n", p.TotalKwh))
	b.WriteString(fmt.Sprintf("- peak: %.2f kW\n", p.PeakKw))
	b.WriteString(fmt.Sprintf("- average: %.2f kW\n", p.AvgKw))

	if p.DataPoints > 0 {
		b.WriteString("\n[HOURLY PROFILE]\n")
		b.WriteString("| hour | weekday kW | weekend kW |\n")
		b.WriteString("| --- | --- | --- |\n")
		for h := 0; h < 24; h++ {
			b.WriteString(fmt.Sprintf("| %02d:00 | %.2f | %.2f |\n", h, p.WeekdayProfile[h], p.WeekendProfile[h]))
		}
	}

	b.WriteString("\n[VALIDATION]\n")
	mark := "✓"
	if !r.Verdict.IsValid {
		mark = "⚠"
	}
	b.WriteString(fmt.Sprintf("%s %s: %s\n", mark, r.Verdict.ReasonCode, r.Verdict.Message))
	for _, w := range r.Warnings {
		b.WriteString(fmt.Sprintf("⚠ note: %s\n", w))
	}
	return b.String()
}

func headerName(headers []string, i int) string {
	if i < 0 || i >= len(headers) || strings.TrimSpace(headers[i]) == "" {
		return "(unnamed)"
	}
	return strings.ReplaceAll(strings.TrimSpace(headers[i]), "|", "/")
}
