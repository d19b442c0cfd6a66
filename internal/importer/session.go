package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bizops-suite/customer-import/internal/ingest"
	"github.com/bizops-suite/customer-import/internal/schema"
)

// State is the import session workflow state.
type State string

const (
	StateEmpty         State = "empty"
	StateHeadersLoaded State = "headers_loaded"
	StateMapped        State = "mapped"
	StateValidated     State = "validated"
	StateImporting     State = "importing"
	StateCompleted     State = "completed"
)

var (
	// ErrMappingIncomplete is the session-fatal mapping error: neither a
	// name nor a phone column is mapped, so rows cannot be identified.
	ErrMappingIncomplete = errors.New("mapping must include a name or phone column")
	// ErrInvalidTransition rejects a workflow step the current state does
	// not allow.
	ErrInvalidTransition = errors.New("operation not allowed in current session state")
	// ErrImportStarted rejects re-mapping once execution has begun.
	ErrImportStarted = errors.New("mapping cannot change once the import has started")
)

// Session is one import workflow instance, from file load through final
// result. It exclusively owns its raw table, header mapping, and parsed
// rows; nothing outside may mutate them.
type Session struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	ImportID uuid.UUID
	Filename string

	mu       sync.Mutex
	state    State
	table    *ingest.RawTable
	mapping  *schema.HeaderMapping
	rows     []ParsedRow
	progress int
	result   *ImportResult
	created  time.Time
	logger   *slog.Logger
}

// NewSession creates an empty session for one tenant.
func NewSession(tenantID uuid.UUID, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &Session{
		ID:       id,
		TenantID: tenantID,
		state:    StateEmpty,
		created:  time.Now(),
		logger: logger.With(
			slog.String("service", "import-session"),
			slog.String("session_id", id.String()),
			slog.String("tenant_id", tenantID.String()),
		),
	}
}

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LoadTable moves Empty -> HeadersLoaded: the parsed file is attached and
// headers are auto-mapped against the field catalog.
func (s *Session) LoadTable(table *ingest.RawTable, filename string) (*schema.HeaderMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEmpty {
		return nil, fmt.Errorf("%w: load requires an empty session, state is %s", ErrInvalidTransition, s.state)
	}

	s.table = table
	s.Filename = filename
	s.mapping = schema.AutoMap(table.Headers)
	s.state = StateHeadersLoaded

	s.logger.Info("table loaded",
		slog.String("filename", filename),
		slog.Int("headers", len(table.Headers)),
		slog.Int("rows", len(table.Rows)),
		slog.Int("mapping_warnings", len(s.mapping.Warnings)))

	return s.mapping, nil
}

// OverrideMapping applies a manual header override. Allowed until execution
// starts; a change after a preview invalidates the parsed rows, dropping the
// session back to HeadersLoaded.
func (s *Session) OverrideMapping(header string, field *schema.CanonicalField) (*schema.HeaderMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateHeadersLoaded, StateMapped, StateValidated:
	case StateImporting, StateCompleted:
		return nil, ErrImportStarted
	default:
		return nil, fmt.Errorf("%w: no file loaded", ErrInvalidTransition)
	}

	next, err := schema.Override(s.mapping, header, field)
	if err != nil {
		return nil, err
	}
	s.mapping = next
	s.rows = nil
	s.state = StateHeadersLoaded
	return s.mapping, nil
}

// Mapping returns the current header mapping.
func (s *Session) Mapping() *schema.HeaderMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapping
}

// Preview confirms the mapping and runs the full normalization, validation,
// and duplicate-classification pass over every row, moving the session to
// Validated. The phone index is seeded from the store once; classification
// reflects the store at preview time (intra-file duplicates resolve during
// execution).
func (s *Session) Preview(ctx context.Context, store Store) ([]ParsedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateHeadersLoaded, StateMapped, StateValidated:
	case StateImporting, StateCompleted:
		return nil, ErrImportStarted
	default:
		return nil, fmt.Errorf("%w: no file loaded", ErrInvalidTransition)
	}

	if !s.mapping.HasIdentityField() {
		return nil, ErrMappingIncomplete
	}
	s.state = StateMapped

	phones, err := store.PhonesByTenant(ctx, s.TenantID)
	if err != nil {
		return nil, fmt.Errorf("seed phone index: %w", err)
	}
	index := NewRecordIndex(phones)

	rows := make([]ParsedRow, 0, len(s.table.Rows))
	for i, cells := range s.table.Rows {
		normalized := Normalize(cells, s.mapping, i)
		parsed := ParsedRow{
			Row:    normalized,
			Errors: Validate(normalized),
		}
		if parsed.Valid() {
			if c := Classify(normalized, index); c.Duplicate {
				matchID := c.MatchID
				parsed.DuplicateOf = &matchID
			}
		}
		rows = append(rows, parsed)
	}

	s.rows = rows
	s.state = StateValidated

	s.logger.Info("preview built",
		slog.Int("rows", len(rows)),
		slog.Int("existing_phones", index.Len()))

	return rows, nil
}

// Rows returns the parsed rows from the last preview pass.
func (s *Session) Rows() []ParsedRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Execute confirms the import: Validated -> Importing -> Completed. The
// phone index is re-seeded so execution sees the store as of now, and the
// executor updates it incrementally. Once Importing, the state machine
// rejects any backward transition.
func (s *Session) Execute(ctx context.Context, executor *Executor, store Store, onProgress ProgressFunc) (*ImportResult, error) {
	s.mu.Lock()
	if s.state != StateValidated {
		defer s.mu.Unlock()
		switch s.state {
		case StateImporting:
			return nil, fmt.Errorf("%w: import already running", ErrInvalidTransition)
		case StateCompleted:
			return nil, fmt.Errorf("%w: import already completed", ErrInvalidTransition)
		default:
			return nil, fmt.Errorf("%w: preview must be confirmed first", ErrInvalidTransition)
		}
	}
	s.state = StateImporting
	s.progress = 0
	rows := s.rows
	tenantID := s.TenantID
	s.mu.Unlock()

	phones, err := store.PhonesByTenant(ctx, tenantID)
	if err != nil {
		s.fail()
		return nil, fmt.Errorf("seed phone index: %w", err)
	}
	index := NewRecordIndex(phones)

	result, err := executor.Run(ctx, tenantID, rows, index, func(percent int) {
		s.setProgress(percent)
		if onProgress != nil {
			onProgress(percent)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
	if err != nil {
		// Cancellation mid-batch: keep the partial result, terminal state.
		s.state = StateCompleted
		return result, err
	}
	s.state = StateCompleted
	s.progress = 100
	return result, nil
}

// Progress returns the last reported completion percentage.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Result returns the import result, nil until execution completes.
func (s *Session) Result() *ImportResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Reset returns the session to Empty from any state, discarding the table,
// mapping, rows, and result.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = nil
	s.mapping = nil
	s.rows = nil
	s.result = nil
	s.progress = 0
	s.state = StateEmpty
}

// Age returns how long ago the session was created, for TTL sweeping.
func (s *Session) Age() time.Duration {
	return time.Since(s.created)
}

func (s *Session) setProgress(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = percent
}

func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateValidated
}
