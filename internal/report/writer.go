package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"CostOfCapital/internal/report/format"
)

// Basename is the file name used for single-file formats.
const Basename = "ccc"

// Write renders sheets into dir in every format and returns the files written.
func Write(dir string, formats []string, sheets []Sheet) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var files []string
	for _, f := range formats {
		var (
			written []string
			err     error
		)
		switch f {
		case format.CSV:
			written, err = WriteCSV(dir, sheets)
		case format.XLSX:
			path := filepath.Join(dir, Basename+".xlsx")
			err = WriteXLSX(path, sheets)
			written = []string{path}
		case format.JSON:
			path := filepath.Join(dir, Basename+".json")
			err = WriteJSON(path, sheets)
			written = []string{path}
		default:
			err = fmt.Errorf("unknown output format %q", f)
		}
		if err != nil {
			return files, fmt.Errorf("write %s: %w", f, err)
		}
		files = append(files, written...)
	}
	return files, nil
}

// WriteCSV writes one <name>.csv file per sheet.
func WriteCSV(dir string, sheets []Sheet) ([]string, error) {
	files := make([]string, 0, len(sheets))
	for _, s := range sheets {
		path := filepath.Join(dir, s.Name+".csv")
		if err := writeCSVFile(path, s); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeCSVFile(path string, s Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.Header); err != nil {
		return err
	}
	record := make([]string, len(s.Header))
	for _, row := range s.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatValue(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	}
	return fmt.Sprint(v)
}

// WriteXLSX writes a workbook with one worksheet per sheet.
func WriteXLSX(path string, sheets []Sheet) error {
	wb := excelize.NewFile()
	defer wb.Close()

	for _, s := range sheets {
		if _, err := wb.NewSheet(s.Name); err != nil {
			return fmt.Errorf("sheet %s: %w", s.Name, err)
		}
		if err := wb.SetSheetRow(s.Name, "A1", &s.Header); err != nil {
			return fmt.Errorf("sheet %s header: %w", s.Name, err)
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := wb.SetSheetRow(s.Name, cell, &row); err != nil {
				return fmt.Errorf("sheet %s row %d: %w", s.Name, r+1, err)
			}
		}
	}
	if len(sheets) > 0 {
		if err := wb.DeleteSheet("Sheet1"); err != nil {
			return err
		}
		if idx, err := wb.GetSheetIndex(sheets[0].Name); err == nil {
			wb.SetActiveSheet(idx)
		}
	}
	return wb.SaveAs(path)
}

type jsonSheet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// WriteJSON writes all sheets as one object keyed by sheet name.
func WriteJSON(path string, sheets []Sheet) error {
	out := make(map[string]jsonSheet, len(sheets))
	for _, s := range sheets {
		rows := s.Rows
		if rows == nil {
			rows = [][]any{}
		}
		out[s.Name] = jsonSheet{Columns: s.Header, Rows: rows}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
