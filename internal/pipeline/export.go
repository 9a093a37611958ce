package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"cardfetch/internal"
)

// numericColumns are written as numbers so spreadsheet filters sort them.
var numericColumns = map[string]bool{
	"level": true, "atk": true, "def": true, "link": true, "pendulum_scale": true,
}

// ExportCSVToXLSX copies an output CSV into a single-sheet workbook and
// returns the number of data rows written.
func ExportCSVToXLSX(csvPath, outputPath string) (int, error) {
	in, err := os.Open(csvPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", csvPath, err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("no rows in %s", csvPath)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := records[0]
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range records[1:] {
		rowNo := i + 2
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNo)
			_ = f.SetCellValue(sheet, cell, cellValue(headers, c, value))
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, err
	}
	if err := f.SaveAs(outputPath); err != nil {
		return 0, err
	}
	return len(records) - 1, nil
}

// ExportRowsToCSV writes input rows (id,name) so a failed subset of a run
// can be fed back as input.
func ExportRowsToCSV(rows []internal.InputRow, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	_ = w.Write([]string{"id", "name"})
	for _, row := range rows {
		_ = w.Write([]string{row.ExternalID, row.Name})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func cellValue(headers []string, col int, value string) any {
	if col < len(headers) && numericColumns[headers[col]] {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return value
}
