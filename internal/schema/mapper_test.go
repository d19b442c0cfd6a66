package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMap_VietnameseHeaders(t *testing.T) {
	// Test that a typical Vietnamese export maps without any manual overrides
	headers := []string{"Họ tên", "SĐT", "Email", "Địa chỉ", "Ghi chú"}

	mapping := AutoMap(headers)

	require.NotNil(t, mapping)
	assert.Equal(t, FieldName, mapping.FieldFor("Họ tên"))
	assert.Equal(t, FieldPhone, mapping.FieldFor("SĐT"))
	assert.Equal(t, FieldEmail, mapping.FieldFor("Email"))
	assert.Equal(t, FieldAddress, mapping.FieldFor("Địa chỉ"))
	assert.Equal(t, FieldNote, mapping.FieldFor("Ghi chú"))
	assert.Empty(t, mapping.Warnings, "unambiguous headers should produce no warnings")
}

func TestAutoMap_EnglishSynonyms(t *testing.T) {
	headers := []string{"Full Name", "Phone Number", "Date of Birth", "Source", "Total Spent"}

	mapping := AutoMap(headers)

	assert.Equal(t, FieldName, mapping.FieldFor("Full Name"))
	assert.Equal(t, FieldPhone, mapping.FieldFor("Phone Number"))
	assert.Equal(t, FieldBirthday, mapping.FieldFor("Date of Birth"))
	assert.Equal(t, FieldSource, mapping.FieldFor("Source"))
	assert.Equal(t, FieldTotalSpent, mapping.FieldFor("Total Spent"))
}

func TestAutoMap_UnknownHeadersIgnored(t *testing.T) {
	// Unrecognized columns map to nothing and raise no warning
	headers := []string{"Họ tên", "Mã vạch nội bộ", "Cột X"}

	mapping := AutoMap(headers)

	assert.Equal(t, FieldName, mapping.FieldFor("Họ tên"))
	assert.Equal(t, CanonicalField(""), mapping.FieldFor("Mã vạch nội bộ"))
	assert.Equal(t, CanonicalField(""), mapping.FieldFor("Cột X"))
	assert.Empty(t, mapping.Warnings)
}

func TestAutoMap_Deterministic(t *testing.T) {
	// Same headers in, same mapping out, every time
	headers := []string{"Tên khách hàng", "Điện thoại", "email", "nguồn"}

	first := AutoMap(headers)
	for i := 0; i < 10; i++ {
		again := AutoMap(headers)
		assert.Equal(t, first.Fields, again.Fields, "run %d differs", i)
		assert.Equal(t, first.Warnings, again.Warnings, "run %d warnings differ", i)
	}
}

func TestAutoMap_DuplicateFieldWarnsAndLastWins(t *testing.T) {
	// Two phone columns: both stay mapped, a warning surfaces, and the
	// rightmost column owns the field
	headers := []string{"SĐT", "Họ tên", "Số điện thoại"}

	mapping := AutoMap(headers)

	assert.Equal(t, FieldPhone, mapping.FieldFor("SĐT"))
	assert.Equal(t, FieldPhone, mapping.FieldFor("Số điện thoại"))
	require.Len(t, mapping.Warnings, 1, "duplicate claim should warn exactly once")

	owner, ok := mapping.HeaderFor(FieldPhone)
	require.True(t, ok)
	assert.Equal(t, "Số điện thoại", owner, "rightmost column should own the field")
}

func TestAutoMap_FirstLastNameSplit(t *testing.T) {
	headers := []string{"Họ", "Tên", "SĐT"}

	mapping := AutoMap(headers)

	assert.Equal(t, FieldLastName, mapping.FieldFor("Họ"))
	assert.Equal(t, FieldFirstName, mapping.FieldFor("Tên"))
	assert.True(t, mapping.HasIdentityField())
}

func TestOverride_ReplacesAndIgnores(t *testing.T) {
	headers := []string{"Họ tên", "Cột lạ"}
	mapping := AutoMap(headers)
	require.Equal(t, CanonicalField(""), mapping.FieldFor("Cột lạ"))

	// Manually bind the unknown column to phone
	phone := FieldPhone
	next, err := Override(mapping, "Cột lạ", &phone)
	require.NoError(t, err)
	assert.Equal(t, FieldPhone, next.FieldFor("Cột lạ"))

	// Original mapping is untouched
	assert.Equal(t, CanonicalField(""), mapping.FieldFor("Cột lạ"))

	// Ignore a previously mapped column
	next, err = Override(next, "Họ tên", nil)
	require.NoError(t, err)
	assert.Equal(t, CanonicalField(""), next.FieldFor("Họ tên"))
}

func TestOverride_RejectsUnknownHeaderAndField(t *testing.T) {
	mapping := AutoMap([]string{"Họ tên"})

	phone := FieldPhone
	_, err := Override(mapping, "Không tồn tại", &phone)
	assert.Error(t, err, "overriding a header not in the file should fail")

	bogus := CanonicalField("favoriteColor")
	_, err = Override(mapping, "Họ tên", &bogus)
	assert.Error(t, err, "overriding to a non-catalog field should fail")
}

func TestHasIdentityField(t *testing.T) {
	// A mapping with neither name nor phone cannot identify rows
	noIdentity := AutoMap([]string{"Email", "Địa chỉ", "Ghi chú"})
	assert.False(t, noIdentity.HasIdentityField())

	phoneOnly := AutoMap([]string{"SĐT", "Email"})
	assert.True(t, phoneOnly.HasIdentityField())

	nameOnly := AutoMap([]string{"Họ tên"})
	assert.True(t, nameOnly.HasIdentityField())
}
