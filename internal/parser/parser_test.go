package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/WattMatt/greencalc-sa-sub011/internal/parser"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestReadTableCSVVendor(t *testing.T) {
	content := ",\"Main Incomer\",2024-01-01,2024-01-31\n" +
		"RDate,RTime,kWh+\n" +
		"2024/01/02,00:30,0.5\n" +
		"2024/01/02,01:00,0.5\n"
	p := writeFile(t, "scada.csv", []byte(content))

	tbl, err := parser.ReadTable(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Join(tbl.Headers, "|"); got != "RDate|RTime|kWh+" {
		t.Fatalf("unexpected headers: %q", got)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Detection == nil || tbl.Detection.Layout.Format != analysis.FormatVendorSCADA {
		t.Fatalf("expected vendor detection, got %+v", tbl.Detection)
	}
	if tbl.Source != p {
		t.Fatalf("source not recorded: %q", tbl.Source)
	}
}

func TestReadTableTSV(t *testing.T) {
	p := writeFile(t, "export.tsv", []byte("Date\tTime\tkW\n02/01/2024\t00:00\t3,5\n"))
	tbl, err := parser.ReadTable(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Headers) != 3 || tbl.Rows[0][2] != "3,5" {
		t.Fatalf("unexpected table: %+v", tbl.RawTable)
	}
}

func TestReadTableTSVEmptyMiddleCell(t *testing.T) {
	p := writeFile(t, "gaps.tsv", []byte("Date\tMeter\tkWh\n02/01/2024 00:00\t\t1,5\n02/01/2024 01:00\tM1\t2\n"))
	tbl, err := parser.ReadTable(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Rows[0]) != 3 || tbl.Rows[0][1] != "" || tbl.Rows[0][2] != "1,5" {
		t.Fatalf("empty cell collapsed: %q", tbl.Rows[0])
	}
	if got := analysis.Process(tbl.Headers, tbl.Rows, analysis.Config{}).TotalKwh; got != 3.5 {
		t.Fatalf("expected 3.5 kWh, got %v", got)
	}
}

func TestReadTableUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, _, err := transform.Bytes(enc, []byte("Date,kWh\r\n2024-01-02 00:00,1\r\n"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p := writeFile(t, "utf16.csv", data)
	tbl, err := parser.ReadTable(p, parser.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Join(tbl.Headers, "|"); got != "Date|kWh" {
		t.Fatalf("unexpected headers: %q", got)
	}
}

func TestDecodeTextWindows1252(t *testing.T) {
	data, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte("Température;kWh"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := parser.DecodeText(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != "Température;kWh" {
		t.Fatalf("unexpected decode: %q", out)
	}
}

func TestDecodeTextUTF8BOM(t *testing.T) {
	out, err := parser.DecodeText([]byte("\xEF\xBB\xBFDate,kWh"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != "Date,kWh" {
		t.Fatalf("BOM not stripped: %q", out)
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet("readings"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	_ = f.SetCellValue("Sheet1", "A1", "cover page")
	_ = f.SetCellValue("readings", "A1", "Timestamp")
	_ = f.SetCellValue("readings", "B1", "Energy (kWh)")
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		row := i + 2
		_ = f.SetCellValue("readings", "A"+strconv.Itoa(row), start.Add(time.Duration(i)*30*time.Minute))
		_ = f.SetCellValue("readings", "B"+strconv.Itoa(row), 0.25*float64(i+1))
	}
	p := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	return p
}

func TestReadTableXLSXByName(t *testing.T) {
	p := writeWorkbook(t)
	tbl, err := parser.ReadTable(p, parser.Options{SheetName: "Readings"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Sheet != "readings" {
		t.Fatalf("unexpected sheet: %q", tbl.Sheet)
	}
	if got := strings.Join(tbl.Headers, "|"); got != "Timestamp|Energy (kWh)" {
		t.Fatalf("unexpected headers: %q", got)
	}
	if len(tbl.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[1][0] != "2024-01-02 00:30" {
		t.Fatalf("expected ISO timestamp, got %q", tbl.Rows[1][0])
	}

	p2 := analysis.Process(tbl.Headers, tbl.Rows, analysis.Config{})
	if p2.DataPoints != 4 || p2.TotalKwh != 2.5 {
		t.Fatalf("unexpected profile: points=%d total=%v", p2.DataPoints, p2.TotalKwh)
	}
}

func TestReadTableXLSXByIndex(t *testing.T) {
	p := writeWorkbook(t)
	tbl, err := parser.ReadTable(p, parser.Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Sheet != "readings" {
		t.Fatalf("unexpected sheet: %q", tbl.Sheet)
	}
}

func TestReadTableXLSXMissingSheet(t *testing.T) {
	p := writeWorkbook(t)
	if _, err := parser.ReadTable(p, parser.Options{SheetName: "nope"}); !errors.Is(err, parser.ErrSheetNotFound) {
		t.Fatalf("expected ErrSheetNotFound, got %v", err)
	}
	if _, err := parser.ReadTable(p, parser.Options{SheetIndex: 9}); !errors.Is(err, parser.ErrSheetNotFound) {
		t.Fatalf("expected ErrSheetNotFound, got %v", err)
	}
}

func TestReadTableUnsupported(t *testing.T) {
	p := writeFile(t, "notes.docx", []byte("x"))
	if _, err := parser.ReadTable(p, parser.Options{}); !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if parser.Supported(p) {
		t.Fatalf("docx should not be supported")
	}
	if !parser.Supported("a.CSV") {
		t.Fatalf("csv should be supported")
	}
}
