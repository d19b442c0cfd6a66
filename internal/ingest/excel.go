package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseExcel reads the first sheet of an XLSX stream into a RawTable.
func ParseExcel(reader io.Reader) (*RawTable, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrTooFewRows
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	return buildTable(rows)
}

// Parse picks the parser matching the uploaded filename extension.
func Parse(reader io.Reader, filename string) (*RawTable, error) {
	if isExcelFilename(filename) {
		return ParseExcel(reader)
	}
	return ParseCSV(reader)
}

func isExcelFilename(filename string) bool {
	for _, ext := range []string{".xlsx", ".xlsm", ".xls"} {
		if len(filename) > len(ext) && filename[len(filename)-len(ext):] == ext {
			return true
		}
	}
	return false
}
