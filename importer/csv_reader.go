package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVReader reads comma, semicolon or tab separated exports. A UTF-8 or
// UTF-16 byte order mark selects the decoding; without one UTF-8 is assumed.
type CSVReader struct{}

func (r *CSVReader) Read(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %s: %w", path, err)
	}
	defer file.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	content, err := io.ReadAll(transform.NewReader(file, decoder))
	if err != nil {
		return nil, fmt.Errorf("decode csv file %s: %w", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	normalizedHeaders := normalizeHeaders(headers)

	rows := make([]Row, 0, 128)
	rowNumber := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNumber+1, err)
		}

		rows = append(rows, Row{RowNumber: rowNumber + 1, Values: rowValues(normalizedHeaders, row)})
		rowNumber++
	}

	return rows, nil
}

// detectDelimiter picks the most frequent candidate separator in the header
// line, defaulting to a comma.
func detectDelimiter(content []byte) rune {
	header, _, _ := strings.Cut(string(content), "\n")
	best, bestCount := ',', strings.Count(header, ",")
	for _, candidate := range []rune{';', '\t'} {
		if count := strings.Count(header, string(candidate)); count > bestCount {
			best, bestCount = candidate, count
		}
	}
	return best
}
