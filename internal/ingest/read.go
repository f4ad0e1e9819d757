package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// ReadFile loads a table from a .xlsx file, or from CSV for any other
// extension.
func ReadFile(path string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return ReadCSV(path)
	}
}

// ReadCSV reads a comma-separated file whose first record is the header.
func ReadCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, eris.Wrap(err, "ingest: open csv")
	}
	defer f.Close() //nolint:errcheck
	return parseCSV(f)
}

func parseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var t Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, eris.Wrap(err, "ingest: read csv row")
		}
		if t.Headers == nil {
			t.Headers = trimBOM(record)
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	if t.Headers == nil {
		return Table{}, eris.New("ingest: csv has no header row")
	}
	zap.L().Debug("ingest: csv parsed", zap.Int("columns", len(t.Headers)), zap.Int("rows", len(t.Rows)))
	return t, nil
}

// ReadXLSX reads the first sheet of a workbook; row one is the header.
func ReadXLSX(path string) (Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return Table{}, eris.Wrap(err, "ingest: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return Table{}, eris.New("ingest: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	var t Table
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if t.Headers == nil {
			t.Headers = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	if t.Headers == nil {
		return Table{}, eris.Errorf("ingest: sheet %q has no header row", sheet.Name)
	}
	zap.L().Debug("ingest: xlsx parsed",
		zap.String("sheet", sheet.Name), zap.Int("columns", len(t.Headers)), zap.Int("rows", len(t.Rows)))
	return t, nil
}

func trimBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	return headers
}
