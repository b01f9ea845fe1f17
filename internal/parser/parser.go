package parser

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
)

// Reader turns an export file into a header row plus text rows.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opts Options) (*Table, error)
}

// Options selects what to read from multi-sheet sources.
type Options struct {
	// SheetName wins over SheetIndex when set.
	SheetName string
	// SheetIndex is 1-based; 0 means the first sheet.
	SheetIndex int
}

// Table is a read export. Detection is filled for delimited text sources where
// the delimiter, preamble and header row had to be sniffed.
type Table struct {
	analysis.RawTable
	Source    string
	Sheet     string
	Detection *analysis.FormatDetectionResult
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadTable selects a reader based on the file name.
func ReadTable(path string, opts Options) (*Table, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			t, err := r.Read(path, opts)
			if err != nil {
				return nil, err
			}
			t.Source = path
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))
}

// Supported reports whether some registered reader accepts the file name.
func Supported(path string) bool {
	for _, r := range registry {
		if r.CanRead(path) {
			return true
		}
	}
	return false
}

func init() {
	Register(textReader{})
	Register(xlsxReader{})
}

var (
	// ErrUnsupported indicates a file type no reader handles.
	ErrUnsupported = errors.New("unsupported table format")
	// ErrSheetNotFound indicates the requested workbook sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)
