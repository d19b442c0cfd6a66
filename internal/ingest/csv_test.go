package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_Basic(t *testing.T) {
	input := "Họ tên,SĐT,Email\nNguyễn Văn An,0912345678,an@example.com\nTrần Thị Bình,0987654321,binh@example.com\n"

	table, err := ParseCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []string{"Họ tên", "SĐT", "Email"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Nguyễn Văn An", table.Cell(0, 0))
	assert.Equal(t, "0987654321", table.Cell(1, 1))
}

func TestParseCSV_StripsBOM(t *testing.T) {
	// Excel's "CSV UTF-8" export prepends a BOM; it must not leak into the
	// first header
	input := "\uFEFFHọ tên,SĐT\nAn,0912345678\n"

	table, err := ParseCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, "Họ tên", table.Headers[0])
}

func TestParseCSV_SkipsEmptyRows(t *testing.T) {
	// Blank lines above the header and between data rows are dropped; the
	// first non-empty row is the header
	input := ",,\nHọ tên,SĐT,Email\nAn,0912345678,\n,,\nBình,0987654321,binh@example.com\n"

	table, err := ParseCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []string{"Họ tên", "SĐT", "Email"}, table.Headers)
	require.Len(t, table.Rows, 2, "fully empty rows should be skipped")
	assert.Equal(t, "Bình", table.Cell(1, 0))
}

func TestParseCSV_RaggedRows(t *testing.T) {
	// Rows shorter than the header row parse fine; missing cells read as ""
	input := "Họ tên,SĐT,Email\nAn,0912345678\n"

	table, err := ParseCSV(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Cell(0, 2), "missing trailing cell should read as empty")
}

func TestParseCSV_TooFewRows(t *testing.T) {
	// Header only, or nothing at all, is session-fatal
	for _, input := range []string{"", "Họ tên,SĐT\n", ",,\n,,\n"} {
		_, err := ParseCSV(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrTooFewRows, "input %q", input)
	}
}

func TestParse_DispatchesByExtension(t *testing.T) {
	csvInput := "Họ tên,SĐT\nAn,0912345678\n"

	table, err := Parse(strings.NewReader(csvInput), "khach-hang.csv")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	// An xlsx extension routes to the workbook parser, which rejects a CSV body
	_, err = Parse(strings.NewReader(csvInput), "khach-hang.xlsx")
	assert.Error(t, err)
}
