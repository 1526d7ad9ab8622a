package output

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Table is a header row plus data rows, the shape every export format shares.
type Table struct {
	Headers []string
	Rows    [][]string
}

type Writer interface {
	Write(path string, table Table) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriterForPath picks the writer from the output file's extension.
func WriterForPath(path string) (Writer, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("cannot infer output format from %q (use .csv or .xlsx)", path)
	}
	return WriterForFormat(ext)
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
