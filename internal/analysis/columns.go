package analysis

import (
	"regexp"
	"strings"
)

// RoleSource records how a column role was resolved.
type RoleSource string

const (
	SourceNone        RoleSource = "none"
	SourceExplicit    RoleSource = "explicit"
	SourceMapping     RoleSource = "mapping"
	SourceHeader      RoleSource = "header"
	SourceStatistical RoleSource = "statistical"
	SourceDefault     RoleSource = "default"
)

// ColumnRole is a column index (-1 when absent) plus its provenance.
type ColumnRole struct {
	Index  int        `json:"index"`
	Source RoleSource `json:"source"`
}

// Resolved reports whether the role points at a column.
func (r ColumnRole) Resolved() bool { return r.Index >= 0 }

func unresolved() ColumnRole { return ColumnRole{Index: -1, Source: SourceNone} }

// ColumnRoles maps the logical roles onto column indices.
type ColumnRoles struct {
	Date    ColumnRole `json:"date"`
	Time    ColumnRole `json:"time"`
	Value   ColumnRole `json:"value"`
	MeterID ColumnRole `json:"meterId"`
}

// Header patterns per role, in priority order. Unit-specific value tokens come
// before the generic words.
var (
	datePatterns  = []string{"rdate", "date", "datetime", "timestamp", "day"}
	timePatterns  = []string{"rtime", "time", "hour"}
	valuePatterns = []string{"kwh+", "kwh-", "kwh", "kvah", "kw", "kva", "energy", "consumption", "reading", "value", "power", "load", "demand", "current", "amps"}
	meterPatterns = []string{"meter", "serial", "device", "nmi", "mprn"}
)

var (
	reNumericDate = regexp.MustCompile(`^\s*\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}`)
	reTimeOfDay   = regexp.MustCompile(`^\s*\d{1,2}:\d{2}`)
)

const (
	columnSampleRows  = 20
	dateMatchRatio    = 0.8
	numericMatchRatio = 0.5
)

// DetectColumns resolves column roles from header text, then from sampled rows.
func DetectColumns(headers []string, rows [][]string) ColumnRoles {
	return DetectColumnsExcluding(headers, rows, nil)
}

// DetectColumnsExcluding is DetectColumns with some columns removed from
// consideration (for example columns a user marked as skip).
func DetectColumnsExcluding(headers []string, rows [][]string, exclude map[int]bool) ColumnRoles {
	roles := ColumnRoles{Date: unresolved(), Time: unresolved(), Value: unresolved(), MeterID: unresolved()}
	width := tableWidth(headers, rows)
	if width == 0 {
		return roles
	}
	claimed := map[int]bool{}
	for i := range exclude {
		if exclude[i] {
			claimed[i] = true
		}
	}
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}

	// Pass A: header text
	for _, r := range []struct {
		role     *ColumnRole
		patterns []string
	}{
		{&roles.Date, datePatterns},
		{&roles.Time, timePatterns},
		{&roles.Value, valuePatterns},
		{&roles.MeterID, meterPatterns},
	} {
		if idx := matchHeader(norm, r.patterns, claimed); idx >= 0 {
			*r.role = ColumnRole{Index: idx, Source: SourceHeader}
			claimed[idx] = true
		}
	}

	// Pass B: sampled cells
	sample := rows
	if len(sample) > columnSampleRows {
		sample = sample[:columnSampleRows]
	}
	if len(sample) > 0 {
		if !roles.Date.Resolved() {
			if idx := firstMatchingColumn(sample, width, reNumericDate, claimed); idx >= 0 {
				roles.Date = ColumnRole{Index: idx, Source: SourceStatistical}
				claimed[idx] = true
			}
		}
		if !roles.Time.Resolved() {
			if idx := firstMatchingColumn(sample, width, reTimeOfDay, claimed); idx >= 0 {
				roles.Time = ColumnRole{Index: idx, Source: SourceStatistical}
				claimed[idx] = true
			}
		}
		if !roles.Value.Resolved() {
			if idx := bestValueColumn(sample, width, claimed); idx >= 0 {
				roles.Value = ColumnRole{Index: idx, Source: SourceStatistical}
				claimed[idx] = true
			}
		}
	}

	// Never fail to produce a layout; validation catches garbage downstream.
	if !roles.Date.Resolved() {
		roles.Date = ColumnRole{Index: 0, Source: SourceDefault}
	}
	if !roles.Value.Resolved() {
		idx := 1
		if width == 1 {
			idx = 0
		}
		roles.Value = ColumnRole{Index: idx, Source: SourceDefault}
	}
	return roles
}

func matchHeader(headers []string, patterns []string, claimed map[int]bool) int {
	for _, p := range patterns {
		for i, h := range headers {
			if claimed[i] || h == "" {
				continue
			}
			if strings.Contains(h, p) {
				return i
			}
		}
	}
	return -1
}

func firstMatchingColumn(sample [][]string, width int, re *regexp.Regexp, claimed map[int]bool) int {
	for col := 0; col < width; col++ {
		if claimed[col] {
			continue
		}
		hits := 0
		for _, row := range sample {
			if re.MatchString(cell(row, col)) {
				hits++
			}
		}
		if float64(hits)/float64(len(sample)) >= dateMatchRatio {
			return col
		}
	}
	return -1
}

// bestValueColumn scores numeric columns: numeric fraction, plus a bonus when
// consecutive values vary and when the sum is non-zero.
func bestValueColumn(sample [][]string, width int, claimed map[int]bool) int {
	best, bestScore := -1, 0.0
	for col := 0; col < width; col++ {
		if claimed[col] {
			continue
		}
		var nums []float64
		for _, row := range sample {
			if v, ok := ParseNumeric(cell(row, col)); ok {
				nums = append(nums, v)
			}
		}
		frac := float64(len(nums)) / float64(len(sample))
		if frac < numericMatchRatio {
			continue
		}
		score := frac
		sum := 0.0
		varies := false
		for i, v := range nums {
			sum += v
			if i > 0 && v != nums[i-1] {
				varies = true
			}
		}
		if varies {
			score += 0.3
		}
		if sum != 0 {
			score += 0.2
		}
		if score > bestScore {
			best, bestScore = col, score
		}
	}
	return best
}

func tableWidth(headers []string, rows [][]string) int {
	w := len(headers)
	for i, r := range rows {
		if i >= columnSampleRows {
			break
		}
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
