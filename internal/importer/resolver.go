package importer

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bizops-suite/customer-import/internal/models"
)

// RecordIndex is a working lookup from normalized phone number to existing
// customer id. It is seeded from the store once per run and owned
// exclusively by that run; it is never the system of record. The executor
// registers each insert so later rows in the same file resolve against it.
type RecordIndex struct {
	byPhone map[string]uuid.UUID
}

// NewRecordIndex builds an index from a phone -> id snapshot of the store.
func NewRecordIndex(seed map[string]uuid.UUID) *RecordIndex {
	idx := &RecordIndex{byPhone: make(map[string]uuid.UUID, len(seed))}
	for phone, id := range seed {
		idx.byPhone[NormalizePhone(phone)] = id
	}
	return idx
}

// Lookup returns the customer id owning the given normalized phone.
func (idx *RecordIndex) Lookup(phone string) (uuid.UUID, bool) {
	id, ok := idx.byPhone[phone]
	return id, ok
}

// Register records a newly inserted customer's phone so subsequent rows in
// the same batch classify as updates rather than duplicate inserts.
func (idx *RecordIndex) Register(phone string, id uuid.UUID) {
	idx.byPhone[phone] = id
}

// Len returns the number of indexed phones.
func (idx *RecordIndex) Len() int {
	return len(idx.byPhone)
}

// Classification is the duplicate-resolution verdict for one row.
type Classification struct {
	Duplicate bool
	MatchID   uuid.UUID
}

// Classify decides whether a row refers to an already-known customer. The
// classification key is the normalized phone number only; name and email are
// deliberately not used for identity matching.
func Classify(row NormalizedRow, idx *RecordIndex) Classification {
	if row.Phone == "" {
		return Classification{}
	}
	if id, ok := idx.Lookup(row.Phone); ok {
		return Classification{Duplicate: true, MatchID: id}
	}
	return Classification{}
}

// BuildPatch computes the merge patch applied to an existing customer for a
// duplicate row. Policy: scalar fields are overwritten only when the
// incoming value is non-empty, so an empty import cell never blanks a stored
// value; tags are unioned and deduplicated; a differing non-empty note is
// appended on a new line rather than replacing, keeping the note history;
// UpdatedAt is always refreshed.
func BuildPatch(row NormalizedRow, existing *models.Customer, now time.Time) *models.CustomerPatch {
	patch := &models.CustomerPatch{UpdatedAt: now}

	setIfChanged(&patch.Name, row.Name, existing.Name)
	setIfChanged(&patch.Email, row.Email, existing.Email)
	setIfChanged(&patch.Address, row.Address, existing.Address)
	setIfChanged(&patch.Birthday, row.Birthday, existing.Birthday)
	setIfChanged(&patch.Source, row.Source, existing.Source)

	if merged, changed := unionTags(existing.Tags, row.Tags); changed {
		patch.Tags = merged
	}

	if row.Note != "" && row.Note != existing.Note {
		note := row.Note
		if existing.Note != "" {
			note = existing.Note + "\n" + row.Note
		}
		patch.Note = &note
	}

	return patch
}

func setIfChanged(dst **string, incoming, current string) {
	if incoming != "" && incoming != current {
		*dst = &incoming
	}
}

// unionTags merges existing and incoming tag sets, preserving existing order
// and deduplicating. The second result reports whether the union added
// anything new.
func unionTags(existing, incoming []string) ([]string, bool) {
	if len(incoming) == 0 {
		return nil, false
	}

	merged := append([]string(nil), existing...)
	seen := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		seen[strings.ToLower(tag)] = struct{}{}
	}

	changed := false
	for _, tag := range incoming {
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, tag)
		changed = true
	}

	if !changed {
		return nil, false
	}
	return merged, true
}
