package analysis

import (
	"strings"
)

// ColumnDataType is the type a user assigned to a column in a manual mapping.
type ColumnDataType string

const (
	DataTypeDate    ColumnDataType = "date"
	DataTypeGeneral ColumnDataType = "general"
	DataTypeSkip    ColumnDataType = "skip"
)

// ColumnMapping is one entry from a prior manual column-mapping step.
type ColumnMapping struct {
	Index      int            `json:"index" yaml:"index" mapstructure:"index"`
	Name       string         `json:"name" yaml:"name" mapstructure:"name"`
	DataType   ColumnDataType `json:"dataType" yaml:"data_type" mapstructure:"data_type"`
	DateFormat string         `json:"dateFormat,omitempty" yaml:"date_format,omitempty" mapstructure:"date_format"`
}

// Config controls a pipeline run. It is only read, so one value may be shared by
// concurrent runs.
type Config struct {
	// Explicit column indices; highest priority. Nil means detect.
	ValueColumnIndex *int `json:"valueColumnIndex,omitempty"`
	DateColumnIndex  *int `json:"dateColumnIndex,omitempty"`
	// A negative TimeColumnIndex declares that there is no time column.
	TimeColumnIndex *int `json:"timeColumnIndex,omitempty"`
	// Columns from a manual mapping step; second priority.
	Columns []ColumnMapping `json:"columns,omitempty"`
	// ValueUnit is the declared unit, or auto (empty) to infer it from the header.
	ValueUnit   Unit      `json:"valueUnit,omitempty"`
	VoltageV    float64   `json:"voltageV,omitempty"`
	PowerFactor float64   `json:"powerFactor,omitempty"`
	DateOrder   DateOrder `json:"dateOrder,omitempty"`
	Logger      Logger    `json:"-"`
}

// Index is a convenience for the optional column overrides.
func Index(i int) *int { return &i }

func (c Config) logger() Logger {
	if c.Logger == nil {
		return NopLogger{}
	}
	return c.Logger
}

// Result is a LoadProfile plus the diagnostics of how it was produced.
type Result struct {
	Profile     LoadProfile `json:"profile"`
	Roles       ColumnRoles `json:"roles"`
	Unit        Unit        `json:"unit"`
	Class       UnitClass   `json:"unitClass"`
	DateOrder   DateOrder   `json:"dateOrder"`
	RowsSeen    int         `json:"rowsSeen"`
	ParseErrors int         `json:"parseErrors"`
}

const (
	detectionSampleRows = 100
	loggedParseErrors   = 5
)

// Process converts raw rows into a LoadProfile. It never fails: structural
// problems yield the zero-filled empty profile and bad rows are skipped.
func Process(headers []string, rows [][]string, cfg Config) LoadProfile {
	return Run(headers, rows, cfg).Profile
}

// Run is Process with diagnostics.
func Run(headers []string, rows [][]string, cfg Config) Result {
	log := cfg.logger()
	log.Log(LevelInfo, "pipeline.start", map[string]any{"headers": len(headers), "rows": len(rows)})

	roles, order := resolveRoles(headers, rows, cfg)
	res := Result{Profile: EmptyProfile(), Roles: roles, DateOrder: order}
	log.Log(LevelInfo, "layout.resolved", map[string]any{
		"date": roles.Date.Index, "date_source": string(roles.Date.Source),
		"time": roles.Time.Index, "value": roles.Value.Index,
		"value_source": string(roles.Value.Source), "date_order": string(order),
	})

	width := tableWidth(headers, rows)
	if !roles.Date.Resolved() || !roles.Value.Resolved() || roles.Date.Index >= width || roles.Value.Index >= width {
		log.Log(LevelWarn, "layout.missing_column", map[string]any{
			"date": roles.Date.Index, "value": roles.Value.Index, "width": width,
		})
		return res
	}

	res.Unit = resolveUnit(headers, cfg, roles.Value.Index)
	res.Class = res.Unit.Class()
	elec := Electrical{VoltageV: cfg.VoltageV, PowerFactor: cfg.PowerFactor}

	readings := make([]ParsedReading, 0, len(rows))
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		res.RowsSeen++
		timeCell := ""
		if roles.Time.Resolved() {
			timeCell = cell(row, roles.Time.Index)
		}
		ts, ok := ParseDateTime(cell(row, roles.Date.Index), timeCell, order)
		if !ok {
			res.ParseErrors++
			if res.ParseErrors <= loggedParseErrors {
				log.Log(LevelDebug, "row.parse_error", map[string]any{"row": i, "field": "date", "cell": cell(row, roles.Date.Index)})
			}
			continue
		}
		raw, ok := ParseNumeric(cell(row, roles.Value.Index))
		if !ok {
			res.ParseErrors++
			if res.ParseErrors <= loggedParseErrors {
				log.Log(LevelDebug, "row.parse_error", map[string]any{"row": i, "field": "value", "cell": cell(row, roles.Value.Index)})
			}
			continue
		}
		readings = append(readings, ParsedReading{
			Date:   ts.Date,
			Hour:   ts.Hour,
			Minute: ts.Minute,
			Value:  Normalize(raw, res.Unit, elec),
		})
	}
	if len(readings) == 0 {
		log.Log(LevelWarn, "pipeline.empty", map[string]any{"rows_seen": res.RowsSeen, "parse_errors": res.ParseErrors})
		return res
	}

	interval := DetectInterval(readings)
	log.Log(LevelDebug, "interval.detected", map[string]any{"minutes": interval})
	res.Profile = Aggregate(readings, res.Class, interval)
	log.Log(LevelInfo, "pipeline.done", map[string]any{
		"data_points": res.Profile.DataPoints, "parse_errors": res.ParseErrors,
		"unit": string(res.Unit), "class": string(res.Class), "total_kwh": res.Profile.TotalKwh,
	})
	return res
}

// resolveRoles layers explicit indices over manual mappings over detection.
func resolveRoles(headers []string, rows [][]string, cfg Config) (ColumnRoles, DateOrder) {
	order, err := ParseDateOrder(string(cfg.DateOrder))
	if err != nil {
		order = DMY
	}
	exclude := map[int]bool{}
	for _, m := range cfg.Columns {
		if m.DataType == DataTypeSkip {
			exclude[m.Index] = true
		}
	}
	sample := rows
	if len(sample) > detectionSampleRows {
		sample = sample[:detectionSampleRows]
	}
	roles := DetectColumnsExcluding(headers, sample, exclude)

	var overrides []int
	override := func(role *ColumnRole, idx int, src RoleSource) {
		*role = ColumnRole{Index: idx, Source: src}
		overrides = append(overrides, idx)
	}

	mapped := mappedRoles(cfg.Columns)
	if mapped.date != nil {
		override(&roles.Date, mapped.date.Index, SourceMapping)
		if o, err := ParseDateOrder(mapped.date.DateFormat); err == nil && mapped.date.DateFormat != "" {
			order = o
		}
	}
	if mapped.time != nil {
		override(&roles.Time, mapped.time.Index, SourceMapping)
	}
	if mapped.value != nil {
		override(&roles.Value, mapped.value.Index, SourceMapping)
	}

	if cfg.DateColumnIndex != nil && *cfg.DateColumnIndex >= 0 {
		override(&roles.Date, *cfg.DateColumnIndex, SourceExplicit)
	}
	if cfg.ValueColumnIndex != nil && *cfg.ValueColumnIndex >= 0 {
		override(&roles.Value, *cfg.ValueColumnIndex, SourceExplicit)
	}
	if cfg.TimeColumnIndex != nil {
		if *cfg.TimeColumnIndex >= 0 {
			override(&roles.Time, *cfg.TimeColumnIndex, SourceExplicit)
		} else {
			roles.Time = ColumnRole{Index: -1, Source: SourceExplicit}
		}
	}

	// A detected role must not sit on a column someone assigned elsewhere.
	for _, idx := range overrides {
		if roles.Time.Index == idx && !assigned(roles.Time) {
			roles.Time = unresolved()
		}
		if roles.MeterID.Index == idx {
			roles.MeterID = unresolved()
		}
	}
	if roles.Date.Index == roles.Value.Index && assigned(roles.Date) != assigned(roles.Value) {
		redetect(&roles, headers, sample, exclude)
	}
	return roles, order
}

func assigned(r ColumnRole) bool {
	return r.Source == SourceExplicit || r.Source == SourceMapping
}

// redetect re-runs the statistical pass for whichever of date/value was detected
// onto the column the other one was assigned to.
func redetect(roles *ColumnRoles, headers []string, rows [][]string, exclude map[int]bool) {
	claimed := map[int]bool{}
	for i, ok := range exclude {
		claimed[i] = ok
	}
	for _, r := range []ColumnRole{roles.Date, roles.Time, roles.Value} {
		if r.Resolved() && assigned(r) {
			claimed[r.Index] = true
		}
	}
	if len(rows) > columnSampleRows {
		rows = rows[:columnSampleRows]
	}
	width := tableWidth(headers, rows)
	if len(rows) == 0 {
		return
	}
	pick := func(idx int) ColumnRole {
		if idx < 0 {
			return unresolved()
		}
		return ColumnRole{Index: idx, Source: SourceStatistical}
	}
	if !assigned(roles.Date) {
		roles.Date = pick(firstMatchingColumn(rows, width, reNumericDate, claimed))
		return
	}
	roles.Value = pick(bestValueColumn(rows, width, claimed))
}

type mappingRoles struct {
	date, time, value *ColumnMapping
}

// mappedRoles interprets manual mappings: the first date-typed column is the date,
// a column named like a clock is the time, and the value is the first general
// column named like a measurement, else the first remaining general column.
func mappedRoles(cols []ColumnMapping) mappingRoles {
	var out mappingRoles
	for i := range cols {
		if cols[i].DataType == DataTypeDate && cols[i].Index >= 0 {
			out.date = &cols[i]
			break
		}
	}
	for i := range cols {
		c := &cols[i]
		if c.DataType == DataTypeSkip || c.Index < 0 || (out.date != nil && c.Index == out.date.Index) {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if matchesAny(name, timePatterns) || isClockFormat(c.DateFormat) {
			out.time = c
			break
		}
	}
	var fallback *ColumnMapping
	for i := range cols {
		c := &cols[i]
		if c.DataType != DataTypeGeneral || c.Index < 0 {
			continue
		}
		if (out.date != nil && c.Index == out.date.Index) || (out.time != nil && c.Index == out.time.Index) {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if matchesAny(name, valuePatterns) {
			out.value = c
			break
		}
		if fallback == nil && !matchesAny(name, meterPatterns) {
			fallback = c
		}
	}
	if out.value == nil {
		out.value = fallback
	}
	return out
}

func matchesAny(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// isClockFormat recognises masks such as HH:mm that carry no date part.
func isClockFormat(format string) bool {
	f := strings.ToUpper(format)
	return strings.Contains(f, "H") && !strings.ContainsAny(f, "DY")
}

func resolveUnit(headers []string, cfg Config, valueIdx int) Unit {
	if u, err := ParseUnit(string(cfg.ValueUnit)); err == nil && u != UnitAuto {
		return u
	}
	for _, m := range cfg.Columns {
		if m.Index == valueIdx && strings.TrimSpace(m.Name) != "" {
			return DetectUnit(m.Name)
		}
	}
	if valueIdx < len(headers) {
		return DetectUnit(headers[valueIdx])
	}
	return UnitKWh
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
