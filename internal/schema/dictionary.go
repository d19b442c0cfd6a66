package schema

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CanonicalField identifies one of the fixed customer attributes an import
// can populate.
type CanonicalField string

const (
	FieldName        CanonicalField = "name"
	FieldFirstName   CanonicalField = "firstName"
	FieldLastName    CanonicalField = "lastName"
	FieldPhone       CanonicalField = "phone"
	FieldEmail       CanonicalField = "email"
	FieldAddress     CanonicalField = "address"
	FieldBirthday    CanonicalField = "birthday"
	FieldTags        CanonicalField = "tags"
	FieldNote        CanonicalField = "note"
	FieldSource      CanonicalField = "source"
	FieldTotalOrders CanonicalField = "totalOrders"
	FieldTotalSpent  CanonicalField = "totalSpent"
	FieldCreatedAt   CanonicalField = "createdAt"
)

// FieldDef is one entry of the import field catalog: the canonical field,
// its display label, and the header patterns that select it. Patterns are
// matched against folded headers (lowercase, diacritics stripped) in the
// order listed, exact names before loose synonyms.
type FieldDef struct {
	Field    CanonicalField
	Label    string
	Matchers []*regexp.Regexp
}

// Dictionary is the ordered catalog of importable fields. Catalog order is
// priority order: when two entries could claim the same header, the earlier
// entry wins.
var Dictionary = []FieldDef{
	{
		Field: FieldPhone,
		Label: "Số điện thoại",
		Matchers: patterns(
			`^(so dien thoai|sdt|dien thoai)$`,
			`^(phone|mobile|tel|telephone)( number)?$`,
			`(sdt|dien thoai|phone|mobile)`,
		),
	},
	{
		Field: FieldName,
		Label: "Họ tên",
		Matchers: patterns(
			`^(ho ten|ho va ten|ten khach hang|ten khach)$`,
			`^(full ?name|customer ?name|contact ?name|name)$`,
			`^khach hang$`,
			`(ho ten|full ?name)`,
		),
	},
	{
		Field: FieldLastName,
		Label: "Họ",
		Matchers: patterns(
			`^ho$`,
			`^(last ?name|surname|family ?name)$`,
		),
	},
	{
		Field: FieldFirstName,
		Label: "Tên",
		Matchers: patterns(
			`^ten$`,
			`^(first ?name|given ?name)$`,
		),
	},
	{
		Field: FieldEmail,
		Label: "Email",
		Matchers: patterns(
			`^(email|e-?mail|email address|thu dien tu)$`,
			`email`,
		),
	},
	{
		Field: FieldAddress,
		Label: "Địa chỉ",
		Matchers: patterns(
			`^(dia chi|address)$`,
			`(dia chi|address)`,
		),
	},
	{
		Field: FieldBirthday,
		Label: "Ngày sinh",
		Matchers: patterns(
			`^(ngay sinh|sinh nhat|birthday|date of birth|dob)$`,
			`(ngay sinh|birth)`,
		),
	},
	{
		Field: FieldTags,
		Label: "Nhãn",
		Matchers: patterns(
			`^(nhan|the|tags?|labels?)$`,
		),
	},
	{
		Field: FieldNote,
		Label: "Ghi chú",
		Matchers: patterns(
			`^(ghi chu|notes?|comments?)$`,
			`ghi chu`,
		),
	},
	{
		Field: FieldSource,
		Label: "Nguồn",
		Matchers: patterns(
			`^(nguon|nguon khach|source|channel)$`,
		),
	},
	{
		Field: FieldTotalOrders,
		Label: "Số đơn hàng",
		Matchers: patterns(
			`^(so don|so don hang|tong don|total orders?|orders?)$`,
		),
	},
	{
		Field: FieldTotalSpent,
		Label: "Tổng chi tiêu",
		Matchers: patterns(
			`^(tong chi tieu|tong tien|doanh so|total spent|total spend|revenue)$`,
		),
	},
	{
		Field: FieldCreatedAt,
		Label: "Ngày tạo",
		Matchers: patterns(
			`^(ngay tao|created at|created|join date)$`,
		),
	},
}

// LabelFor returns the display label for a canonical field, or the field
// name itself when the field is not in the catalog.
func LabelFor(field CanonicalField) string {
	for _, def := range Dictionary {
		if def.Field == field {
			return def.Label
		}
	}
	return string(field)
}

// IsCanonical reports whether the given field name is in the catalog.
func IsCanonical(field CanonicalField) bool {
	for _, def := range Dictionary {
		if def.Field == field {
			return true
		}
	}
	return false
}

func patterns(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldHeader converts a source header into the comparison form the matchers
// operate on: trimmed, lowercased, diacritics stripped. Vietnamese "đ" is
// not a combining mark, so it is replaced explicitly.
func FoldHeader(header string) string {
	folded, _, err := transform.String(foldTransformer, strings.TrimSpace(header))
	if err != nil {
		folded = strings.TrimSpace(header)
	}
	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "đ", "d")
	return strings.Join(strings.Fields(folded), " ")
}
