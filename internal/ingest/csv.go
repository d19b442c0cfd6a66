package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads a UTF-8 CSV stream into a RawTable. A leading BOM is
// tolerated because most files here come out of Excel's "CSV UTF-8" export.
func ParseCSV(reader io.Reader) (*RawTable, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1 // rows may be ragged

	var rows [][]string
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\uFEFF")
	}

	return buildTable(rows)
}
