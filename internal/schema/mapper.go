package schema

import (
	"fmt"
)

// HeaderMapping associates each source header with at most one canonical
// field. A nil entry means the header is ignored. Mapping is keyed by the
// raw (untrimmed-insensitive) header text as it appears in the file.
type HeaderMapping struct {
	// Headers preserves source column order.
	Headers []string
	// Fields maps header -> canonical field; absent or nil means ignored.
	Fields map[string]*CanonicalField
	// Warnings collects non-fatal mapping notes, e.g. two headers claiming
	// the same field.
	Warnings []string
}

// FieldFor returns the canonical field a header maps to, or "" when the
// header is ignored or unknown.
func (m *HeaderMapping) FieldFor(header string) CanonicalField {
	if f, ok := m.Fields[header]; ok && f != nil {
		return *f
	}
	return ""
}

// HeaderFor returns the source header currently mapped to the given field,
// honoring the last-header-wins rule: when several headers claim the same
// field, the rightmost column owns it.
func (m *HeaderMapping) HeaderFor(field CanonicalField) (string, bool) {
	owner := ""
	found := false
	for _, h := range m.Headers {
		if m.FieldFor(h) == field {
			owner = h
			found = true
		}
	}
	return owner, found
}

// HasIdentityField reports whether the mapping covers at least one field
// usable for row identification. Name may also be synthesized from the
// first/last name pair.
func (m *HeaderMapping) HasIdentityField() bool {
	for _, h := range m.Headers {
		switch m.FieldFor(h) {
		case FieldName, FieldFirstName, FieldLastName, FieldPhone:
			return true
		}
	}
	return false
}

// AutoMap infers a header mapping from the source headers and the field
// catalog. It is a pure function of (headers, Dictionary): deterministic and
// idempotent. For each header the catalog entries are tried in priority
// order and within an entry the matchers in declared order; the first match
// wins. Unmatched headers map to nil (ignored).
//
// When two headers resolve to the same field both stay mapped; consumers of
// single-valued fields must use HeaderFor, which applies last-header-wins.
// A warning is recorded so the mapping UI can surface the ambiguity.
func AutoMap(headers []string) *HeaderMapping {
	mapping := &HeaderMapping{
		Headers: append([]string(nil), headers...),
		Fields:  make(map[string]*CanonicalField, len(headers)),
	}

	claimed := make(map[CanonicalField]string)

	for _, header := range headers {
		folded := FoldHeader(header)
		if folded == "" {
			mapping.Fields[header] = nil
			continue
		}

		matched := matchField(folded)
		mapping.Fields[header] = matched
		if matched == nil {
			continue
		}

		if prev, dup := claimed[*matched]; dup {
			mapping.Warnings = append(mapping.Warnings, fmt.Sprintf(
				"columns %q and %q both map to %s; the rightmost column (%q) will be used",
				prev, header, *matched, header))
		}
		claimed[*matched] = header
	}

	return mapping
}

// Override replaces one header's target field, returning a new mapping.
// Manual overrides always take precedence over auto-inference. A nil field
// marks the header as ignored. Overriding an unknown header is an error.
func Override(mapping *HeaderMapping, header string, field *CanonicalField) (*HeaderMapping, error) {
	if _, known := mapping.Fields[header]; !known {
		return nil, fmt.Errorf("unknown header %q", header)
	}
	if field != nil && !IsCanonical(*field) {
		return nil, fmt.Errorf("unknown field %q", *field)
	}

	next := &HeaderMapping{
		Headers:  append([]string(nil), mapping.Headers...),
		Fields:   make(map[string]*CanonicalField, len(mapping.Fields)),
		Warnings: append([]string(nil), mapping.Warnings...),
	}
	for h, f := range mapping.Fields {
		next.Fields[h] = f
	}
	next.Fields[header] = field
	return next, nil
}

func matchField(folded string) *CanonicalField {
	for _, def := range Dictionary {
		for _, matcher := range def.Matchers {
			if matcher.MatchString(folded) {
				field := def.Field
				return &field
			}
		}
	}
	return nil
}
