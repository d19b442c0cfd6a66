package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizops-suite/customer-import/internal/models"
)

// ImportRepository handles data access for import audit records.
type ImportRepository struct {
	pool *pgxpool.Pool
}

// NewImportRepository creates a new import repository.
func NewImportRepository(pool *pgxpool.Pool) *ImportRepository {
	return &ImportRepository{pool: pool}
}

// importColumns is the canonical column list for imports, used across all
// queries.
const importColumns = `id, tenant_id, filename, file_size, status, row_count,
	inserted_count, updated_count, skipped_count, warnings, last_error,
	idempotency_key, created_at, updated_at`

// scanImport scans a row into an Import using the canonical column order.
func scanImport(row pgx.Row, imp *models.Import) error {
	return row.Scan(
		&imp.ID,
		&imp.TenantID,
		&imp.Filename,
		&imp.FileSize,
		&imp.Status,
		&imp.RowCount,
		&imp.InsertedCount,
		&imp.UpdatedCount,
		&imp.SkippedCount,
		&imp.Warnings,
		&imp.LastError,
		&imp.IdempotencyKey,
		&imp.CreatedAt,
		&imp.UpdatedAt,
	)
}

// Create inserts a new import audit record.
func (r *ImportRepository) Create(ctx context.Context, imp *models.Import) error {
	if imp == nil {
		return errors.New("import cannot be nil")
	}

	query := `
		INSERT INTO imports (
			id, tenant_id, filename, file_size, status, row_count,
			inserted_count, updated_count, skipped_count, warnings, last_error,
			idempotency_key, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		RETURNING ` + importColumns

	return scanImport(r.pool.QueryRow(
		ctx, query,
		imp.ID, imp.TenantID, imp.Filename, imp.FileSize, imp.Status,
		imp.RowCount, imp.InsertedCount, imp.UpdatedCount, imp.SkippedCount,
		imp.Warnings, imp.LastError, imp.IdempotencyKey,
		imp.CreatedAt, imp.UpdatedAt,
	), imp)
}

// GetByID retrieves an import record by id, scoped to the tenant. Returns
// nil, nil when no row matches.
func (r *ImportRepository) GetByID(ctx context.Context, tenantID, importID uuid.UUID) (*models.Import, error) {
	query := `SELECT ` + importColumns + ` FROM imports WHERE id = $1 AND tenant_id = $2`
	imp := &models.Import{}
	err := scanImport(r.pool.QueryRow(ctx, query, importID, tenantID), imp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return imp, nil
}

// Update updates an import audit record's status and counters.
func (r *ImportRepository) Update(ctx context.Context, imp *models.Import) error {
	if imp == nil {
		return errors.New("import cannot be nil")
	}

	query := `
		UPDATE imports
		SET status = $3, row_count = $4, inserted_count = $5,
		    updated_count = $6, skipped_count = $7, warnings = $8,
		    last_error = $9, updated_at = $10
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + importColumns

	err := scanImport(r.pool.QueryRow(
		ctx, query,
		imp.ID, imp.TenantID, imp.Status, imp.RowCount,
		imp.InsertedCount, imp.UpdatedCount, imp.SkippedCount,
		imp.Warnings, imp.LastError, imp.UpdatedAt,
	), imp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("import not found")
		}
		return err
	}
	return nil
}
