package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/WattMatt/greencalc-sa-sub011/internal/parser"
	"github.com/WattMatt/greencalc-sa-sub011/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// profileFlags are shared by profile and profile-batch.
type profileFlags struct {
	valueCol    int
	dateCol     int
	timeCol     int
	unit        string
	voltage     float64
	powerFactor float64
	dateOrder   string
	mapping     string
	maxPeak     float64
	sheetName   string
	sheetIndex  int
	format      string
	strict      bool
}

func (pf *profileFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&pf.valueCol, "value-col", -1, "0-based index of the reading column (-1 = detect)")
	f.IntVar(&pf.dateCol, "date-col", -1, "0-based index of the date or timestamp column (-1 = detect)")
	f.IntVar(&pf.timeCol, "time-col", -1, "0-based index of a separate time column (negative = none when set)")
	f.StringVar(&pf.unit, "unit", "", "unit of the reading column: "+unitList()+" or auto (overrides config)")
	f.Float64Var(&pf.voltage, "voltage", 0, "line voltage in V for A/kVA conversion (overrides config)")
	f.Float64Var(&pf.powerFactor, "power-factor", 0, "power factor for A/kVA conversion (overrides config)")
	f.StringVar(&pf.dateOrder, "date-order", "", "numeric date order: DMY|MDY|YMD|auto, or a mask like DD/MM/YYYY (overrides config)")
	f.StringVar(&pf.mapping, "mapping", "", "column mapping file (YAML or JSON)")
	f.Float64Var(&pf.maxPeak, "max-peak-kw", 0, "peak above which the profile is rejected as a unit mistake (overrides config)")
	f.StringVar(&pf.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	f.IntVar(&pf.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	f.StringVar(&pf.format, "format", "", "output format: markdown|json (overrides config)")
	f.BoolVar(&pf.strict, "strict", false, "fail when the profile does not pass validation")
}

func (pf *profileFlags) readOptions() parser.Options {
	return parser.Options{SheetName: pf.sheetName, SheetIndex: pf.sheetIndex}
}

// pipelineConfig starts from the loaded config and applies the flags the user set.
func (pf *profileFlags) pipelineConfig(cmd *cobra.Command, det *analysis.FormatDetectionResult) (analysis.Config, error) {
	f := cmd.Flags()
	c := analysis.Config{
		VoltageV:    cfg.VoltageV,
		PowerFactor: cfg.PowerFactor,
	}
	if f.Changed("voltage") {
		c.VoltageV = pf.voltage
	}
	if f.Changed("power-factor") {
		c.PowerFactor = pf.powerFactor
	}
	if c.VoltageV < 0 || c.PowerFactor < 0 || c.PowerFactor > 1 {
		return c, fmt.Errorf("invalid electrical settings: voltage %.1f V, power factor %.2f", c.VoltageV, c.PowerFactor)
	}

	unit := cfg.ValueUnit
	if f.Changed("unit") {
		unit = pf.unit
	}
	u, err := analysis.ParseUnit(unit)
	if err != nil {
		return c, err
	}
	c.ValueUnit = u

	order := cfg.DateOrder
	if f.Changed("date-order") {
		order = pf.dateOrder
	}
	if strings.EqualFold(strings.TrimSpace(order), "auto") {
		if det != nil {
			c.DateOrder = det.SuggestedDateOrder
		}
	} else {
		o, err := analysis.ParseDateOrder(order)
		if err != nil {
			return c, err
		}
		c.DateOrder = o
	}

	if f.Changed("value-col") && pf.valueCol >= 0 {
		c.ValueColumnIndex = analysis.Index(pf.valueCol)
	}
	if f.Changed("date-col") && pf.dateCol >= 0 {
		c.DateColumnIndex = analysis.Index(pf.dateCol)
	}
	if f.Changed("time-col") {
		c.TimeColumnIndex = analysis.Index(pf.timeCol)
	}
	if pf.mapping != "" {
		cols, err := loadMapping(pf.mapping)
		if err != nil {
			return c, err
		}
		c.Columns = cols
	}
	return c, nil
}

func (pf *profileFlags) validator(cmd *cobra.Command) analysis.Validator {
	if cmd.Flags().Changed("max-peak-kw") {
		return analysis.Validator{MaxPeakKW: pf.maxPeak}
	}
	return analysis.Validator{MaxPeakKW: cfg.MaxPeakKW}
}

func (pf *profileFlags) outputFormat(cmd *cobra.Command) (string, error) {
	format := cfg.OutputFormat
	if cmd.Flags().Changed("format") {
		format = pf.format
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "markdown", "md":
		return "markdown", nil
	case "json":
		return "json", nil
	}
	return "", fmt.Errorf("unsupported --format: %s (use markdown|json)", format)
}

// mappingFile is the on-disk shape of --mapping. A bare list is accepted too.
type mappingFile struct {
	Columns []analysis.ColumnMapping `json:"columns" yaml:"columns"`
}

func loadMapping(path string) ([]analysis.ColumnMapping, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var doc mappingFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(b, &doc); err != nil {
			var list []analysis.ColumnMapping
			if json.Unmarshal(b, &list) != nil {
				return nil, fmt.Errorf("parse mapping: %w", err)
			}
			doc.Columns = list
		}
	} else {
		if err := yaml.Unmarshal(b, &doc); err != nil {
			var list []analysis.ColumnMapping
			if yaml.Unmarshal(b, &list) != nil {
				return nil, fmt.Errorf("parse mapping: %w", err)
			}
			doc.Columns = list
		}
	}
	for _, m := range doc.Columns {
		switch m.DataType {
		case analysis.DataTypeDate, analysis.DataTypeGeneral, analysis.DataTypeSkip:
		default:
			return nil, fmt.Errorf("mapping for column %d: unsupported data type %q (use date|general|skip)", m.Index, m.DataType)
		}
		if m.Index < 0 {
			return nil, fmt.Errorf("mapping for %q: negative column index", m.Name)
		}
	}
	return doc.Columns, nil
}

// buildReport reads one file and runs the pipeline on it.
func (pf *profileFlags) buildReport(cmd *cobra.Command, path, runID string) (*analysis.Report, error) {
	tbl, err := parser.ReadTable(path, pf.readOptions())
	if err != nil {
		return nil, err
	}
	pcfg, err := pf.pipelineConfig(cmd, tbl.Detection)
	if err != nil {
		return nil, err
	}
	pcfg.Logger = pipelineLogger("file", filepath.Base(path), "run_id", runID)

	res := analysis.Run(tbl.Headers, tbl.Rows, pcfg)
	rep := analysis.NewReport(filepath.Base(path), tbl.Headers, res, pf.validator(cmd))
	rep.RunID = runID
	rep.Sheet = tbl.Sheet
	if tbl.Detection != nil {
		rep.Warnings = tbl.Detection.Warnings
	}
	return rep, nil
}

// errRejected is returned under --strict when validation fails.
func errRejected(rep *analysis.Report) error {
	return fmt.Errorf("%s: profile rejected: %s (%s)", rep.Name, rep.Verdict.Message, rep.Verdict.ReasonCode)
}

func render(rep *analysis.Report, format string) ([]byte, error) {
	if format == "json" {
		return utils.PrettyJSON(rep)
	}
	return []byte(rep.Markdown()), nil
}

func unitList() string {
	var names []string
	for _, u := range analysis.Units() {
		names = append(names, string(u))
	}
	return strings.Join(names, "|")
}
