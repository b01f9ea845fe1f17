package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
)

// FormatTag names a recognised export layout.
type FormatTag string

const (
	FormatVendorSCADA FormatTag = "vendor-scada"
	FormatStandard    FormatTag = "standard"
	FormatMultiMeter  FormatTag = "multi-meter"
	FormatCumulative  FormatTag = "cumulative"
	FormatUnknown     FormatTag = "unknown"
)

// Delimiter is a field separator. It marshals as its text form ("\t" as "tab").
type Delimiter rune

func (d Delimiter) String() string {
	if d == '\t' {
		return "tab"
	}
	return string(rune(d))
}

func (d Delimiter) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Delimiter) UnmarshalText(b []byte) error {
	s := string(b)
	switch {
	case strings.EqualFold(s, "tab") || s == "\t" || s == `\t`:
		*d = '\t'
	case len([]rune(s)) == 1:
		*d = Delimiter([]rune(s)[0])
	default:
		return fmt.Errorf("invalid delimiter %q", s)
	}
	return nil
}

// DetectedLayout describes where things live in a table. Indices are -1 when absent.
// HeaderRowIndex counts parsed records, not file lines: blank lines are skipped
// by the reader, so a preamble with blank lines puts the header further down
// the file than the index suggests.
type DetectedLayout struct {
	Delimiter      Delimiter `json:"delimiter"`
	HeaderRowIndex int       `json:"headerRowIndex"`
	DateColumn     int       `json:"dateColumn"`
	TimeColumn     int       `json:"timeColumn"`
	ValueColumn    int       `json:"valueColumn"`
	MeterIDColumn  int       `json:"meterIdColumn"`
	Format         FormatTag `json:"format"`
	Confidence     float64   `json:"confidence"`
}

// RawTable is a header row plus data rows, all cells still text.
type RawTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// FormatDetectionResult pre-populates a column-mapping step.
type FormatDetectionResult struct {
	Layout             DetectedLayout `json:"layout"`
	Headers            []string       `json:"headers"`
	SampleRows         [][]string     `json:"sampleRows"`
	Roles              ColumnRoles    `json:"roles"`
	MeterName          string         `json:"meterName,omitempty"`
	PreambleStart      *CalendarDate  `json:"preambleStart,omitempty"`
	PreambleEnd        *CalendarDate  `json:"preambleEnd,omitempty"`
	SuggestedDateOrder DateOrder      `json:"suggestedDateOrder"`
	SuggestedUnit      Unit           `json:"suggestedUnit"`
	HasNegativeValues  bool           `json:"hasNegativeValues"`
	IsCumulative       bool           `json:"isCumulative"`
	Warnings           []string       `json:"warnings,omitempty"`
}

const (
	sniffLines       = 10
	headerSearchRows = 5
	sampleRowsShown  = 5
	vendorHeaderRow  = 1
	vendorConfidence = 0.95
)

var (
	delimiterCandidates = []rune{'\t', ';', ',', '|'}
	reVendorPreamble    = regexp.MustCompile(`^,"([^"]+)",(\d{4}-\d{2}-\d{2}),(\d{4}-\d{2}-\d{2})`)
)

// SniffDelimiter counts candidate separators over the first lines. A strict
// maximum wins; no occurrences or a shared maximum fall back to comma.
func SniffDelimiter(lines []string) rune {
	if len(lines) > sniffLines {
		lines = lines[:sniffLines]
	}
	counts := make(map[rune]int, len(delimiterCandidates))
	for _, l := range lines {
		for _, c := range delimiterCandidates {
			counts[c] += strings.Count(l, string(c))
		}
	}
	best, bestN, tie := ',', 0, false
	for _, c := range delimiterCandidates {
		switch n := counts[c]; {
		case n > bestN:
			best, bestN, tie = c, n, false
		case n == bestN && n > 0:
			tie = true
		}
	}
	if bestN == 0 || tie {
		return ','
	}
	return best
}

type vendorPreamble struct {
	name       string
	start, end CalendarDate
}

// detectVendorPreamble recognises the SCADA export whose first line carries the
// meter name and period and whose second line is the RDate/RTime/kWh header.
func detectVendorPreamble(lines []string) (vendorPreamble, bool) {
	if len(lines) < 2 {
		return vendorPreamble{}, false
	}
	m := reVendorPreamble.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if m == nil {
		return vendorPreamble{}, false
	}
	second := strings.ToLower(lines[1])
	if !strings.Contains(second, "rdate") || !strings.Contains(second, "rtime") || !strings.Contains(second, "kwh") {
		return vendorPreamble{}, false
	}
	vp := vendorPreamble{name: m[1]}
	vp.start, _ = ParseCalendarDate(m[2])
	vp.end, _ = ParseCalendarDate(m[3])
	return vp, true
}

// FindHeaderRow returns the first of the leading records whose first cell is
// non-empty and does not start with a digit; 0 when none qualifies.
func FindHeaderRow(records [][]string) int {
	for i, rec := range records {
		if i >= headerSearchRows {
			break
		}
		if len(rec) == 0 {
			continue
		}
		first := strings.TrimSpace(rec[0])
		if first == "" {
			continue
		}
		if r := []rune(first)[0]; !unicode.IsDigit(r) {
			return i
		}
	}
	return 0
}

// DetectFormat inspects unsplit file content and suggests a layout.
func DetectFormat(content string) FormatDetectionResult {
	_, res := SplitTable(content)
	return res
}

// SplitTable splits raw text into a table below the detected header row and
// reports what was detected along the way.
func SplitTable(content string) (RawTable, FormatDetectionResult) {
	text := normalizeText(content)
	lines := strings.SplitN(text, "\n", sniffLines+1)
	res := FormatDetectionResult{
		Layout: DetectedLayout{
			Delimiter:     ',',
			DateColumn:    -1,
			TimeColumn:    -1,
			ValueColumn:   -1,
			MeterIDColumn: -1,
			Format:        FormatUnknown,
		},
		Roles:              ColumnRoles{Date: unresolved(), Time: unresolved(), Value: unresolved(), MeterID: unresolved()},
		SuggestedDateOrder: DMY,
		SuggestedUnit:      UnitKWh,
	}

	vp, vendor := detectVendorPreamble(lines)
	if vendor {
		res.MeterName = vp.name
		if vp.start.Valid() {
			s := vp.start
			res.PreambleStart = &s
		}
		if vp.end.Valid() {
			e := vp.end
			res.PreambleEnd = &e
		}
	} else {
		res.Layout.Delimiter = Delimiter(SniffDelimiter(lines))
	}

	records := splitRecords(text, rune(res.Layout.Delimiter))
	if len(records) == 0 {
		res.Warnings = append(res.Warnings, "no records found")
		return RawTable{}, res
	}
	header := FindHeaderRow(records)
	if vendor {
		header = vendorHeaderRow
	}
	if header >= len(records) {
		res.Warnings = append(res.Warnings, "header row not found")
		return RawTable{}, res
	}
	res.Layout.HeaderRowIndex = header

	table := RawTable{Headers: trimAll(records[header]), Rows: records[header+1:]}
	res.Headers = table.Headers
	sample := table.Rows
	if len(sample) > detectionSampleRows {
		sample = sample[:detectionSampleRows]
	}
	res.SampleRows = sample
	if len(res.SampleRows) > sampleRowsShown {
		res.SampleRows = res.SampleRows[:sampleRowsShown]
	}

	roles := DetectColumns(table.Headers, sample)
	res.Roles = roles
	res.Layout.DateColumn = roles.Date.Index
	res.Layout.TimeColumn = roles.Time.Index
	res.Layout.ValueColumn = roles.Value.Index
	res.Layout.MeterIDColumn = roles.MeterID.Index

	var values []float64
	var dates []string
	for _, row := range sample {
		if v, ok := ParseNumeric(cell(row, roles.Value.Index)); ok {
			values = append(values, v)
			if v < 0 {
				res.HasNegativeValues = true
			}
		}
		if d := cell(row, roles.Date.Index); d != "" {
			dates = append(dates, d)
		}
	}
	res.IsCumulative = looksCumulative(values)
	res.SuggestedDateOrder = InferDateOrder(dates)
	if roles.Value.Resolved() && roles.Value.Index < len(table.Headers) {
		res.SuggestedUnit = DetectUnit(table.Headers[roles.Value.Index])
	}

	switch {
	case vendor:
		res.Layout.Format = FormatVendorSCADA
	case distinctValues(sample, roles.MeterID.Index) > 1:
		res.Layout.Format = FormatMultiMeter
	case res.IsCumulative:
		res.Layout.Format = FormatCumulative
	case roles.Date.Resolved() && roles.Value.Resolved():
		res.Layout.Format = FormatStandard
	}
	res.Layout.Confidence = layoutConfidence(roles, vendor)

	if res.HasNegativeValues {
		res.Warnings = append(res.Warnings, "negative values present; choose a sign policy (filter|absolute|keep)")
	}
	if res.IsCumulative {
		res.Warnings = append(res.Warnings, "values look cumulative; convert to interval deltas before profiling")
	}
	if res.Layout.Format == FormatMultiMeter {
		res.Warnings = append(res.Warnings, "several meters in one file; readings will be combined")
	}
	return table, res
}

// InferDateOrder guesses the component order from sampled date cells. The first
// unambiguous cell decides; DMY otherwise.
func InferDateOrder(cells []string) DateOrder {
	for _, c := range cells {
		m := reDateOnly.FindStringSubmatch(c)
		if m == nil {
			continue
		}
		switch {
		case len(m[1]) == 4:
			return YMD
		case atoi(m[1]) > 12:
			return DMY
		case atoi(m[2]) > 12:
			return MDY
		}
	}
	return DMY
}

func layoutConfidence(roles ColumnRoles, vendor bool) float64 {
	switch {
	case vendor:
		return vendorConfidence
	case roles.Date.Source == SourceDefault || roles.Value.Source == SourceDefault:
		return 0.3
	case roles.Date.Source == SourceHeader && roles.Value.Source == SourceHeader:
		return 0.9
	case roles.Date.Resolved() && roles.Value.Resolved():
		return 0.6
	}
	return 0
}

func distinctValues(rows [][]string, col int) int {
	if col < 0 {
		return 0
	}
	seen := map[string]bool{}
	for _, r := range rows {
		if v := cell(r, col); v != "" {
			seen[v] = true
		}
	}
	return len(seen)
}

// normalizeText drops a UTF-8 BOM and unifies line endings.
func normalizeText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// splitRecords reads delimited records tolerantly: ragged rows and stray quotes
// are accepted, and a malformed line is skipped rather than ending the read.
func splitRecords(text string, delim rune) [][]string {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	// with a tab delimiter the reader would eat empty cells as leading space
	r.TrimLeadingSpace = delim != '\t'
	r.ReuseRecord = false
	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			continue
		}
		if err != nil {
			break
		}
		out = append(out, rec)
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
