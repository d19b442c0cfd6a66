package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Customer is the target entity of the import engine.
// DB columns: id, tenant_id, name, phone, email, address, birthday, tags,
//
//	note, source, total_orders, total_spent, created_at, updated_at
//
// Phone is always stored in normalized local form; it is the identity key
// for duplicate resolution and unique per tenant.
type Customer struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email,omitempty"`
	Address     string    `json:"address,omitempty"`
	Birthday    string    `json:"birthday,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Note        string    `json:"note,omitempty"`
	Source      string    `json:"source,omitempty"`
	TotalOrders int       `json:"total_orders"`
	TotalSpent  float64   `json:"total_spent"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomerPatch is the set of field updates applied to an existing customer
// when an import row is classified as a duplicate. Nil scalar pointers mean
// "leave the stored value alone"; Tags and Note, when set, carry the already
// merged value.
type CustomerPatch struct {
	Name      *string   `json:"name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Birthday  *string   `json:"birthday,omitempty"`
	Source    *string   `json:"source,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Note      *string   `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Empty reports whether the patch carries no field changes. UpdatedAt alone
// still counts as a change: a duplicate row always refreshes the timestamp.
func (p *CustomerPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Address == nil &&
		p.Birthday == nil && p.Source == nil && p.Tags == nil && p.Note == nil
}

// Import is the audit record for one import session.
// DB columns: id, tenant_id, filename, file_size, status, row_count,
//
//	inserted_count, updated_count, skipped_count, warnings, last_error,
//	idempotency_key, created_at, updated_at
type Import struct {
	ID             uuid.UUID       `json:"import_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Filename       string          `json:"filename"`
	FileSize       int64           `json:"file_size"`
	Status         string          `json:"status"`
	RowCount       int             `json:"row_count"`
	InsertedCount  int             `json:"inserted_count"`
	UpdatedCount   int             `json:"updated_count"`
	SkippedCount   int             `json:"skipped_count"`
	Warnings       json.RawMessage `json:"warnings"`
	LastError      *string         `json:"last_error,omitempty"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Pagination holds pagination metadata for list endpoints.
type Pagination struct {
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalResults int `json:"total_results"`
	TotalPages   int `json:"total_pages"`
}
