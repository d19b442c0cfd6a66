package importer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/bizops-suite/customer-import/internal/models"
)

// errRecordVanished covers an index hit whose record was deleted between
// seeding and execution.
var errRecordVanished = errors.New("indexed customer no longer exists")

// Store is the customer record store the engine persists against. The
// transport behind it (and any per-call timeout) is the implementation's
// concern; a failed call is treated like any other row-level error.
type Store interface {
	Create(ctx context.Context, customer *models.Customer) (uuid.UUID, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, patch *models.CustomerPatch) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Customer, error)
	PhonesByTenant(ctx context.Context, tenantID uuid.UUID) (map[string]uuid.UUID, error)
}

// ParsedRow is a normalized row plus its validation and classification
// results. Created once during the preview pass and immutable afterward;
// the executor only reads it.
type ParsedRow struct {
	Row         NormalizedRow
	Errors      []ValidationError
	DuplicateOf *uuid.UUID
}

// Valid reports whether the row passed validation and may be persisted.
func (p *ParsedRow) Valid() bool {
	return len(p.Errors) == 0
}

// Outcome is the per-row result of a batch execution.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeSkipped  Outcome = "skipped"
)

// RowOutcome records what happened to one row during execution.
type RowOutcome struct {
	SourceRowIndex int     `json:"source_row_index"`
	Phone          string  `json:"phone"`
	Outcome        Outcome `json:"outcome"`
	Error          string  `json:"error,omitempty"`
}

// ImportResult summarizes a completed batch. Immutable once returned; used
// for both the UI summary and the audit record.
type ImportResult struct {
	Inserted int          `json:"inserted"`
	Updated  int          `json:"updated"`
	Skipped  int          `json:"skipped"`
	PerRow   []RowOutcome `json:"per_row"`
}

// ProgressFunc receives the rounded completion percentage after each row.
type ProgressFunc func(percent int)

// Executor persists validated rows against the store, one row at a time.
//
// Rows run strictly sequentially, never in parallel: intra-batch duplicate
// resolution needs each insert visible in the index before the next row with
// the same phone is classified, and sequential execution keeps store load
// bounded and progress monotonic.
type Executor struct {
	store  Store
	logger *slog.Logger
}

// NewExecutor creates a batch executor over the given store.
func NewExecutor(store Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: store, logger: logger}
}

// Run persists every valid row as an insert or merge-update, isolating
// per-row failure: a store error counts the row as skipped and the batch
// continues. Cancellation is checked at row boundaries only; a row's single
// persistence call either completes or fails.
//
// The index must be a working copy seeded for this run; Run mutates it as
// inserts land and the caller must discard it afterward.
func (e *Executor) Run(
	ctx context.Context,
	tenantID uuid.UUID,
	rows []ParsedRow,
	index *RecordIndex,
	onProgress ProgressFunc,
) (*ImportResult, error) {
	logger := e.logger.With(
		slog.String("service", "import-executor"),
		slog.String("tenant_id", tenantID.String()),
	)

	valid := make([]ParsedRow, 0, len(rows))
	for _, row := range rows {
		if row.Valid() {
			valid = append(valid, row)
		}
	}

	logger.Info("starting batch execution",
		slog.Int("total_rows", len(rows)),
		slog.Int("valid_rows", len(valid)))

	result := &ImportResult{PerRow: make([]RowOutcome, 0, len(valid))}
	now := time.Now()

	for i, parsed := range valid {
		if err := ctx.Err(); err != nil {
			logger.Warn("batch cancelled",
				slog.Int("processed", i),
				slog.Int("total", len(valid)))
			return result, err
		}

		outcome := e.persistRow(ctx, logger, tenantID, parsed.Row, index, now)
		switch outcome.Outcome {
		case OutcomeInserted:
			result.Inserted++
		case OutcomeUpdated:
			result.Updated++
		case OutcomeSkipped:
			result.Skipped++
		}
		result.PerRow = append(result.PerRow, outcome)

		if onProgress != nil {
			onProgress(progressPercent(i+1, len(valid)))
		}
	}

	logger.Info("batch execution completed",
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

// persistRow applies one row to the store. The live index takes precedence
// over the preview classification: a row classified NEW during preview
// becomes an update when an earlier row in this batch already inserted its
// phone.
func (e *Executor) persistRow(
	ctx context.Context,
	logger *slog.Logger,
	tenantID uuid.UUID,
	row NormalizedRow,
	index *RecordIndex,
	now time.Time,
) RowOutcome {
	outcome := RowOutcome{SourceRowIndex: row.SourceRowIndex, Phone: row.Phone}

	if matchID, duplicate := index.Lookup(row.Phone); duplicate {
		existing, err := e.store.GetByID(ctx, tenantID, matchID)
		if err == nil && existing == nil {
			err = errRecordVanished
		}
		if err != nil {
			logger.Warn("failed to load existing customer, skipping row",
				slog.Int("row", row.SourceRowIndex),
				slog.String("error", err.Error()))
			outcome.Outcome = OutcomeSkipped
			outcome.Error = err.Error()
			return outcome
		}

		patch := BuildPatch(row, existing, now)
		if err := e.store.Update(ctx, tenantID, matchID, patch); err != nil {
			logger.Warn("failed to update customer, skipping row",
				slog.Int("row", row.SourceRowIndex),
				slog.String("error", err.Error()))
			outcome.Outcome = OutcomeSkipped
			outcome.Error = err.Error()
			return outcome
		}

		outcome.Outcome = OutcomeUpdated
		return outcome
	}

	customer := customerFromRow(tenantID, row, now)
	id, err := e.store.Create(ctx, customer)
	if err != nil {
		logger.Warn("failed to insert customer, skipping row",
			slog.Int("row", row.SourceRowIndex),
			slog.String("error", err.Error()))
		outcome.Outcome = OutcomeSkipped
		outcome.Error = err.Error()
		return outcome
	}

	index.Register(row.Phone, id)
	outcome.Outcome = OutcomeInserted
	return outcome
}

func customerFromRow(tenantID uuid.UUID, row NormalizedRow, now time.Time) *models.Customer {
	return &models.Customer{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        row.Name,
		Phone:       row.Phone,
		Email:       row.Email,
		Address:     row.Address,
		Birthday:    row.Birthday,
		Tags:        row.Tags,
		Note:        row.Note,
		Source:      row.Source,
		TotalOrders: row.TotalOrders,
		TotalSpent:  row.TotalSpent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func progressPercent(processed, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(processed) / float64(total)))
}
