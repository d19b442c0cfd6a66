package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bizops-suite/customer-import/internal/schema"
)

// templateSheet is the sheet name used in the downloadable example workbook.
const templateSheet = "Khách hàng"

// templateRows are the sample contacts shipped in the template so users see
// the expected shape of each column.
var templateRows = [][]string{
	{"Nguyễn Văn An", "0912345678", "an.nguyen@example.com", "12 Lý Thường Kiệt, Hà Nội", "01/05/1990", "vip, bán lẻ", "Khách quen", "Facebook"},
	{"Trần Thị Bình", "0987654321", "binh.tran@example.com", "45 Lê Lợi, Đà Nẵng", "23/11/1985", "sỉ", "", "Giới thiệu"},
	{"Lê Minh Châu", "0901234567", "", "8 Nguyễn Huệ, TP.HCM", "", "mới", "Liên hệ lại sau Tết", "Zalo"},
}

// templateFields defines which catalog fields appear in the template and in
// what column order.
var templateFields = []schema.CanonicalField{
	schema.FieldName,
	schema.FieldPhone,
	schema.FieldEmail,
	schema.FieldAddress,
	schema.FieldBirthday,
	schema.FieldTags,
	schema.FieldNote,
	schema.FieldSource,
}

// WriteTemplate writes the example import workbook: one sheet, canonical
// header labels, and a few sample rows. The template is generated
// independently of the import path and is not validated through it.
func WriteTemplate(w io.Writer) error {
	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(templateSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headers := make([]interface{}, len(templateFields))
	for i, field := range templateFields {
		headers[i] = schema.LabelFor(field)
	}
	if err := file.SetSheetRow(templateSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, row := range templateRows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := file.SetSheetRow(templateSheet, axis, &cells); err != nil {
			return fmt.Errorf("write sample row %d: %w", i+1, err)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
