package feed

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyFeed reports a feed without a single usable row.
var ErrEmptyFeed = errors.New("feed is empty")

// DetectDelimiter picks the delimiter among ';', ',', tab and '|' that splits
// the most rows into the same number of columns. Semicolon wins ties, since
// the spreadsheets are exported with comma decimals.
func DetectDelimiter(data []byte) rune {
	best, bestScore := ';', 0
	for _, delim := range []rune{';', ',', '\t', '|'} {
		r := csv.NewReader(bytes.NewReader(data))
		r.Comma = delim
		r.LazyQuotes = true
		r.FieldsPerRecord = -1

		records, err := r.ReadAll()
		if err != nil || len(records) == 0 {
			continue
		}

		counts := map[int]int{}
		for _, rec := range records {
			if !isEmptyRow(rec) {
				counts[len(rec)]++
			}
		}
		width, rows := 0, 0
		for w, n := range counts {
			if n > rows || (n == rows && w > width) {
				width, rows = w, n
			}
		}
		if width < 2 {
			continue
		}
		if score := rows*10 + width; score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

// ReadCSV reads all rows of a CSV feed, detecting its delimiter.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFeed
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = DetectDelimiter(data)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// ReadXLSX reads the rows of the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFeed
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFeed
	}
	return rows, nil
}

// ReadFile reads a feed from disk, choosing the reader by file extension.
func ReadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	default:
		return ReadCSV(f)
	}
}

// ReadBytes reads an uploaded feed of unknown type. Workbooks are recognised
// by their zip signature; everything else is read as CSV.
func ReadBytes(data []byte) ([][]string, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return ReadXLSX(bytes.NewReader(data))
	}
	return ReadCSV(bytes.NewReader(data))
}

var zipMagic = []byte("PK\x03\x04")

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
