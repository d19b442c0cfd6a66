package importer

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id is unknown or belongs to
// a different tenant.
var ErrSessionNotFound = errors.New("import session not found")

// Manager holds live import sessions in memory. Sessions are short-lived
// workflow state, not durable data; the audit trail lives in the imports
// table.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	logger   *slog.Logger
}

// NewManager creates a session manager with the given idle TTL.
func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		logger:   logger.With(slog.String("service", "import-sessions")),
	}
}

// Create registers a new empty session for the tenant.
func (m *Manager) Create(tenantID uuid.UUID) *Session {
	session := NewSession(tenantID, m.logger)
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

// Get returns the session with the given id, scoped to the tenant.
func (m *Manager) Get(tenantID, sessionID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok || session.TenantID != tenantID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete discards a session.
func (m *Manager) Delete(tenantID, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok || session.TenantID != tenantID {
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	return nil
}

// SweepExpired drops sessions older than the TTL that are not mid-import.
// Call from a background ticker.
func (m *Manager) SweepExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		if session.Age() > m.ttl && session.State() != StateImporting {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired sessions swept", slog.Int("removed", removed))
	}
	return removed
}
