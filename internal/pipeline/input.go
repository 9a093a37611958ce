package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"cardfetch/internal"
)

var (
	ErrInputMissing = errors.New("input file not found")
	ErrNoNameColumn = errors.New("input has no 'name' column")
	ErrEmptyInput   = errors.New("input has no header row")
)

// ReadInputRows loads every data row of a CSV or .xlsx input, blank names
// included. Column lookup is case-insensitive; "name" is required and "id"
// optional.
func ReadInputRows(path string) ([]internal.InputRow, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (must have column 'name')", ErrInputMissing, path)
		}
		return nil, err
	}

	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = readXLSXRecords(path)
	default:
		records, err = readCSVRecords(path)
	}
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records)
}

func readCSVRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func readXLSXRecords(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func rowsFromRecords(records [][]string) ([]internal.InputRow, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	header := map[string]int{}
	for idx, name := range records[0] {
		name = strings.TrimPrefix(name, "\ufeff")
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := header[key]; !dup {
			header[key] = idx
		}
	}
	if _, ok := header["name"]; !ok {
		return nil, ErrNoNameColumn
	}

	out := make([]internal.InputRow, 0, len(records)-1)
	for i, record := range records[1:] {
		out = append(out, internal.InputRow{
			LineNo:     i + 1,
			ExternalID: valueAt(header, record, "id"),
			Name:       valueAt(header, record, "name"),
		})
	}
	return out, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
