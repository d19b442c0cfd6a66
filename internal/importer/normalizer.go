package importer

import (
	"strconv"
	"strings"

	"github.com/bizops-suite/customer-import/internal/schema"
)

// NormalizedRow holds one import row's cell values converted to canonical,
// comparison-ready form. Phone is always normalized before any comparison
// or persistence. Absent or blank cells stay empty strings.
type NormalizedRow struct {
	SourceRowIndex int
	Name           string
	Phone          string
	Email          string
	Address        string
	Birthday       string
	Note           string
	Source         string
	Tags           []string
	TotalOrders    int
	TotalSpent     float64
	CreatedAtRaw   string
	RawCells       []string
}

// Normalize converts one raw row into a NormalizedRow using the confirmed
// header mapping. When two headers map to the same field, the rightmost
// column wins, matching HeaderMapping's last-header-wins rule.
func Normalize(cells []string, mapping *schema.HeaderMapping, rowIndex int) NormalizedRow {
	row := NormalizedRow{
		SourceRowIndex: rowIndex,
		RawCells:       append([]string(nil), cells...),
	}

	var firstName, lastName string

	for col, header := range mapping.Headers {
		value := ""
		if col < len(cells) {
			value = strings.TrimSpace(cells[col])
		}

		switch mapping.FieldFor(header) {
		case schema.FieldName:
			row.Name = value
		case schema.FieldFirstName:
			firstName = value
		case schema.FieldLastName:
			lastName = value
		case schema.FieldPhone:
			row.Phone = NormalizePhone(value)
		case schema.FieldEmail:
			row.Email = value
		case schema.FieldAddress:
			row.Address = value
		case schema.FieldBirthday:
			row.Birthday = value
		case schema.FieldTags:
			row.Tags = SplitTags(value)
		case schema.FieldNote:
			row.Note = value
		case schema.FieldSource:
			row.Source = value
		case schema.FieldTotalOrders:
			row.TotalOrders = parseCount(value)
		case schema.FieldTotalSpent:
			row.TotalSpent = parseAmount(value)
		case schema.FieldCreatedAt:
			row.CreatedAtRaw = value
		}
	}

	// Family-name-first synthesis when no whole-name column is mapped or
	// the cell is blank.
	if row.Name == "" && (firstName != "" || lastName != "") {
		row.Name = strings.TrimSpace(strings.Join(
			nonEmpty(lastName, firstName), " "))
	}

	return row
}

// NormalizePhone converts a phone cell to canonical local form: separators
// stripped, the +84 country prefix replaced with 0, and a bare 84 prefix
// replaced with 0 when the digits are long enough to carry one. The function
// is idempotent: NormalizePhone(NormalizePhone(x)) == NormalizePhone(x).
func NormalizePhone(raw string) string {
	phone := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '.', '-', '(', ')':
			return -1
		}
		return r
	}, raw)

	if strings.HasPrefix(phone, "+84") {
		return "0" + phone[3:]
	}
	if strings.HasPrefix(phone, "84") && len(phone) >= 11 {
		return "0" + phone[2:]
	}
	return phone
}

// SplitTags splits a tag cell on commas into a deduplicated, order-preserving
// set of trimmed tokens.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var tags []string
	seen := make(map[string]struct{})
	for _, token := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(token)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// parseCount reads an order-count cell leniently: thousand separators
// dropped, anything unparseable becomes zero.
func parseCount(raw string) int {
	cleaned := strings.NewReplacer(",", "", ".", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseAmount reads a money cell leniently; grouping commas are dropped.
func parseAmount(raw string) float64 {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || amount < 0 {
		return 0
	}
	return amount
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
