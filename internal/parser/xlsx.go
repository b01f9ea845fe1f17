package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

func (xlsxReader) Read(path string, opts Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opts)
	if err != nil {
		return nil, err
	}
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	rows := isoDateCells(shown, raw, date1904)

	t := &Table{Sheet: sheet}
	if len(rows) == 0 {
		return t, nil
	}
	h := analysis.FindHeaderRow(rows)
	t.Headers = make([]string, len(rows[h]))
	for i, c := range rows[h] {
		t.Headers[i] = strings.TrimSpace(c)
	}
	t.Rows = rows[h+1:]
	return t, nil
}

func pickSheet(sheets []string, opts Options) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	if opts.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opts.SheetName) {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, opts.SheetName, strings.Join(sheets, ", "))
	}
	idx := opts.SheetIndex
	if idx == 0 {
		idx = 1
	}
	if idx < 1 || idx > len(sheets) {
		return "", fmt.Errorf("%w: index %d (workbook has %d)", ErrSheetNotFound, idx, len(sheets))
	}
	return sheets[idx-1], nil
}

var (
	reShownDate  = regexp.MustCompile(`^\s*\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}`)
	reShownClock = regexp.MustCompile(`^\s*\d{1,2}:\d{2}`)
)

// isoDateCells replaces date- and time-formatted cells with ISO text built from
// the stored serial, so the locale of the workbook's number format stops mattering.
func isoDateCells(shown, raw [][]string, date1904 bool) [][]string {
	for i, row := range shown {
		for j, c := range row {
			dateLike := reShownDate.MatchString(c)
			clockLike := reShownClock.MatchString(c)
			if !dateLike && !clockLike {
				continue
			}
			if i >= len(raw) || j >= len(raw[i]) {
				continue
			}
			serial, err := strconv.ParseFloat(strings.TrimSpace(raw[i][j]), 64)
			if err != nil || serial < 0 {
				continue
			}
			if !dateLike {
				// time-only cell: fraction of a day
				_, frac := splitSerial(serial)
				row[j] = clockText(frac)
				continue
			}
			ts, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			ts = ts.Round(time.Minute)
			if strings.Contains(c, ":") {
				row[j] = ts.Format("2006-01-02 15:04")
			} else {
				row[j] = ts.Format("2006-01-02")
			}
		}
	}
	return shown
}

func splitSerial(serial float64) (int, float64) {
	whole := int(serial)
	return whole, serial - float64(whole)
}

func clockText(frac float64) string {
	mins := int(frac*24*60 + 0.5)
	if mins >= 24*60 {
		mins = 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
