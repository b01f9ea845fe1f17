package analysis

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportMarkdown(t *testing.T) {
	headers := []string{"RDate", "RTime", "kWh+"}
	res := Run(headers, halfHourRows("2024-01-02", "0.5"), Config{})
	rep := NewReport("site.csv", headers, res, Validator{})
	rep.RunID = "run-1"

	md := rep.Markdown()
	for _, want := range []string{
		"[LOAD PROFILE]",
		"File: site.csv",
		"Run: run-1",
		"Rows: 48",
		"Period: 2024-01-02 to 2024-01-02 (1 weekdays, 0 weekend days)",
		"Interval: 30 min",
		"Unit: kWh (energy)",
		"- date: RDate (#0, header)",
		"- time: RTime (#1, header)",
		"- value: kWh+ (#2, header)",
		"- energy: 24.00 kWh",
		"| 13:00 | 1.00 | 0.00 |",
		"✓ ok: profile looks plausible",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "- meter:")
}

func TestReportMarkdownEmpty(t *testing.T) {
	res := Run([]string{"Date", "kWh"}, [][]string{{"never", "1"}}, Config{})
	md := NewReport("", nil, res, Validator{}).Markdown()
	assert.Contains(t, md, "Rows: 1 (parsed 0, skipped 1)")
	assert.Contains(t, md, "⚠ no_data: no data points parsed")
	assert.NotContains(t, md, "[HOURLY PROFILE]")
	assert.Contains(t, md, "- date: (unnamed)")
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	l.Log(LevelDebug, "hidden", nil)
	l.Log(LevelWarn, "layout.missing_column", map[string]any{"value": 9, "date": 0})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "layout.missing_column", rec["msg"])
	assert.Equal(t, float64(9), rec["value"])
	assert.Equal(t, float64(0), rec["date"])
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warn", LevelWarn.String())
}

func TestReportMarkdownWarnings(t *testing.T) {
	res := Run([]string{"Date", "kWh"}, hourlyRows("2024-01-02", "1"), Config{})
	rep := NewReport("book.xlsx", nil, res, Validator{})
	rep.Sheet = "readings"
	rep.Warnings = []string{"several meters in one file; readings will be combined"}

	md := rep.Markdown()
	assert.Contains(t, md, "Sheet: readings")
	assert.Contains(t, md, "⚠ note: several meters in one file; readings will be combined")
}
