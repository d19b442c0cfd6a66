package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizops-suite/customer-import/internal/schema"
)

func TestNormalizePhone_CountryPrefix(t *testing.T) {
	cases := map[string]string{
		"+84901234567":    "0901234567",
		"84901234567":     "0901234567",
		"0901234567":      "0901234567",
		"+84 90 123 4567": "0901234567",
		"090-123-4567":    "0901234567",
		"090.123.4567":    "0901234567",
		"(090) 1234567":   "0901234567",
		"":                "",
		"8490123":         "8490123", // too short to carry a bare country prefix
	}

	for input, want := range cases {
		assert.Equal(t, want, NormalizePhone(input), "normalizing %q", input)
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	// Normalizing an already-normalized number must be a no-op
	inputs := []string{"+84901234567", "84901234567", "0901234567", "090 123 4567", "8490123"}
	for _, input := range inputs {
		once := NormalizePhone(input)
		assert.Equal(t, once, NormalizePhone(once), "double-normalizing %q", input)
	}
}

func TestNormalize_MapsCellsToFields(t *testing.T) {
	mapping := schema.AutoMap([]string{"Họ tên", "SĐT", "Email", "Nhãn", "Tổng chi tiêu"})
	cells := []string{"  Nguyễn Văn An  ", "+84 912 345 678", "an@example.com", "vip, bán lẻ, vip", "1,500,000.50"}

	row := Normalize(cells, mapping, 3)

	assert.Equal(t, 3, row.SourceRowIndex)
	assert.Equal(t, "Nguyễn Văn An", row.Name, "cells should be trimmed")
	assert.Equal(t, "0912345678", row.Phone, "phone should be normalized during mapping")
	assert.Equal(t, "an@example.com", row.Email)
	assert.Equal(t, []string{"vip", "bán lẻ"}, row.Tags, "tags should deduplicate preserving order")
	assert.Equal(t, 1500000.50, row.TotalSpent)
}

func TestNormalize_ShortRow(t *testing.T) {
	// A row with fewer cells than headers reads missing cells as empty
	mapping := schema.AutoMap([]string{"Họ tên", "SĐT", "Email"})

	row := Normalize([]string{"An"}, mapping, 0)

	assert.Equal(t, "An", row.Name)
	assert.Equal(t, "", row.Phone)
	assert.Equal(t, "", row.Email)
}

func TestNormalize_NameSynthesisFamilyNameFirst(t *testing.T) {
	// With split name columns the full name is synthesized family name first
	mapping := schema.AutoMap([]string{"Họ", "Tên", "SĐT"})

	row := Normalize([]string{"Nguyễn Văn", "An", "0912345678"}, mapping, 0)
	assert.Equal(t, "Nguyễn Văn An", row.Name)

	// One side missing still yields a usable name
	row = Normalize([]string{"", "An", "0912345678"}, mapping, 1)
	assert.Equal(t, "An", row.Name)
}

func TestNormalize_WholeNameColumnWinsOverSplit(t *testing.T) {
	// When both a whole-name column and split columns are present, a
	// non-empty whole name is used as-is
	name := schema.FieldName
	mapping := schema.AutoMap([]string{"Họ", "Tên", "Cột đủ tên"})
	mapping, err := schema.Override(mapping, "Cột đủ tên", &name)
	require.NoError(t, err)

	row := Normalize([]string{"Trần", "Bình", "Trần Thị Bình"}, mapping, 0)
	assert.Equal(t, "Trần Thị Bình", row.Name)
}

func TestNormalize_LastHeaderWins(t *testing.T) {
	// Two columns mapped to phone: the rightmost column's value is kept
	mapping := schema.AutoMap([]string{"SĐT", "Số điện thoại"})

	row := Normalize([]string{"0911111111", "0922222222"}, mapping, 0)
	assert.Equal(t, "0922222222", row.Phone)
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, SplitTags(""))
	assert.Nil(t, SplitTags("  ,  , "))
	assert.Equal(t, []string{"vip"}, SplitTags("vip"))
	assert.Equal(t, []string{"vip", "sỉ", "mới"}, SplitTags(" vip , sỉ ,mới, vip "))
}
