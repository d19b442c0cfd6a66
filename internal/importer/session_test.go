package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizops-suite/customer-import/internal/ingest"
	"github.com/bizops-suite/customer-import/internal/models"
	"github.com/bizops-suite/customer-import/internal/schema"
)

func customerTable() *ingest.RawTable {
	return &ingest.RawTable{
		Headers: []string{"Họ tên", "SĐT", "Email"},
		Rows: [][]string{
			{"Nguyễn Văn An", "+84912345678", "an@example.com"},
			{"Trần Thị Bình", "0987654321", ""},
			{"", "12345", ""},
		},
	}
}

func TestSession_LoadTableAutoMaps(t *testing.T) {
	session := NewSession(uuid.New(), nil)
	require.Equal(t, StateEmpty, session.State())

	mapping, err := session.LoadTable(customerTable(), "khach-hang.csv")

	require.NoError(t, err)
	assert.Equal(t, StateHeadersLoaded, session.State())
	assert.Equal(t, schema.FieldName, mapping.FieldFor("Họ tên"))
	assert.Equal(t, schema.FieldPhone, mapping.FieldFor("SĐT"))
	assert.Equal(t, "khach-hang.csv", session.Filename)

	// A second load on the same session is rejected
	_, err = session.LoadTable(customerTable(), "other.csv")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_PreviewClassifiesRows(t *testing.T) {
	store := newFakeStore()
	tenantID := uuid.New()
	store.seed(tenantID, models.Customer{Name: "Trần Thị Bình", Phone: "0987654321"})

	session := NewSession(tenantID, nil)
	_, err := session.LoadTable(customerTable(), "khach-hang.csv")
	require.NoError(t, err)

	rows, err := session.Preview(context.Background(), store)

	require.NoError(t, err)
	assert.Equal(t, StateValidated, session.State())
	require.Len(t, rows, 3)

	assert.True(t, rows[0].Valid())
	assert.Nil(t, rows[0].DuplicateOf, "unknown phone should classify as new")
	assert.Equal(t, "0912345678", rows[0].Row.Phone, "phone should normalize before matching")

	assert.True(t, rows[1].Valid())
	require.NotNil(t, rows[1].DuplicateOf, "stored phone should classify as duplicate")

	assert.False(t, rows[2].Valid())
	assert.Len(t, rows[2].Errors, 2, "missing name and malformed phone both reported")
}

func TestSession_PreviewRequiresIdentityColumn(t *testing.T) {
	// A file with neither name nor phone columns cannot proceed
	session := NewSession(uuid.New(), nil)
	table := &ingest.RawTable{
		Headers: []string{"Email", "Ghi chú"},
		Rows:    [][]string{{"an@example.com", "ghi chú"}},
	}
	_, err := session.LoadTable(table, "khong-dinh-danh.csv")
	require.NoError(t, err)

	_, err = session.Preview(context.Background(), newFakeStore())
	assert.ErrorIs(t, err, ErrMappingIncomplete)
	assert.Equal(t, StateHeadersLoaded, session.State(), "a fatal mapping error should not advance the state")
}

func TestSession_OverrideInvalidatesPreview(t *testing.T) {
	// Changing the mapping after a preview drops back to HeadersLoaded and
	// discards the parsed rows
	store := newFakeStore()
	session := NewSession(uuid.New(), nil)
	_, err := session.LoadTable(customerTable(), "khach-hang.csv")
	require.NoError(t, err)
	_, err = session.Preview(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, StateValidated, session.State())

	email := schema.FieldEmail
	_, err = session.OverrideMapping("Email", &email)
	require.NoError(t, err)

	assert.Equal(t, StateHeadersLoaded, session.State())
	assert.Nil(t, session.Rows())
}

func TestSession_ExecuteRunsBatch(t *testing.T) {
	store := newFakeStore()
	tenantID := uuid.New()
	session := NewSession(tenantID, nil)
	_, err := session.LoadTable(customerTable(), "khach-hang.csv")
	require.NoError(t, err)
	_, err = session.Preview(context.Background(), store)
	require.NoError(t, err)

	executor := NewExecutor(store, nil)
	result, err := session.Execute(context.Background(), executor, store, nil)

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, session.State())
	assert.Equal(t, 100, session.Progress())
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	require.NotNil(t, session.Result())
	assert.Equal(t, result, session.Result())

	// Re-running a completed session is rejected
	_, err = session.Execute(context.Background(), executor, store, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_ExecuteRequiresPreview(t *testing.T) {
	store := newFakeStore()
	session := NewSession(uuid.New(), nil)
	_, err := session.LoadTable(customerTable(), "khach-hang.csv")
	require.NoError(t, err)

	_, err = session.Execute(context.Background(), NewExecutor(store, nil), store, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_ExecuteSeedFailureRevertsState(t *testing.T) {
	// If re-seeding the phone index fails the session stays Validated so the
	// user can retry
	store := newFakeStore()
	session := NewSession(uuid.New(), nil)
	_, err := session.LoadTable(customerTable(), "khach-hang.csv")
	require.NoError(t, err)
	_, err = session.Preview(context.Background(), store)
	require.NoError(t, err)

	store.seedErr = errors.New("connection refused")
	_, err = session.Execute(context.Background(), NewExecutor(store, nil), store, nil)

	require.Error(t, err)
	assert.Equal(t, StateValidated, session.State())
}

func TestSession_NoRemapOnceCompleted(t *testing.T) {
	store := newFakeStore()
	session := NewSession(uuid.New(), nil)
	_, err := session.LoadTable(customerTable(), "khach-hang.csv")
	require.NoError(t, err)
	_, err = session.Preview(context.Background(), store)
	require.NoError(t, err)
	_, err = session.Execute(context.Background(), NewExecutor(store, nil), store, nil)
	require.NoError(t, err)

	phone := schema.FieldPhone
	_, err = session.OverrideMapping("Email", &phone)
	assert.ErrorIs(t, err, ErrImportStarted)

	_, err = session.Preview(context.Background(), store)
	assert.ErrorIs(t, err, ErrImportStarted)
}

func TestSession_ResetFromAnyState(t *testing.T) {
	store := newFakeStore()
	session := NewSession(uuid.New(), nil)
	_, err := session.LoadTable(customerTable(), "khach-hang.csv")
	require.NoError(t, err)
	_, err = session.Preview(context.Background(), store)
	require.NoError(t, err)
	_, err = session.Execute(context.Background(), NewExecutor(store, nil), store, nil)
	require.NoError(t, err)

	session.Reset()

	assert.Equal(t, StateEmpty, session.State())
	assert.Nil(t, session.Mapping())
	assert.Nil(t, session.Rows())
	assert.Nil(t, session.Result())
	assert.Equal(t, 0, session.Progress())

	// A reset session accepts a fresh file
	_, err = session.LoadTable(customerTable(), "lan-hai.csv")
	assert.NoError(t, err)
}

func TestSession_SameFileTwiceIsIdempotent(t *testing.T) {
	// Running the identical file through two sessions inserts once then
	// updates, leaving the store size unchanged
	store := newFakeStore()
	tenantID := uuid.New()
	executor := NewExecutor(store, nil)

	run := func() *ImportResult {
		session := NewSession(tenantID, nil)
		_, err := session.LoadTable(customerTable(), "khach-hang.csv")
		require.NoError(t, err)
		_, err = session.Preview(context.Background(), store)
		require.NoError(t, err)
		result, err := session.Execute(context.Background(), executor, store, nil)
		require.NoError(t, err)
		return result
	}

	first := run()
	assert.Equal(t, 2, first.Inserted)

	second := run()
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Updated)

	phones, err := store.PhonesByTenant(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Len(t, phones, 2)
}
