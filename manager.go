package authcore

import (
	"sync"

	"github.com/communiversity/authcore/role"
	"github.com/communiversity/authcore/session"
	"github.com/communiversity/authcore/token"

	internalaudit "github.com/communiversity/authcore/internal/audit"
	internalmetrics "github.com/communiversity/authcore/internal/metrics"
)

// Manager owns the in-memory session and is the single writer of its state.
// Route guards and application code read point-in-time copies via [Manager.Session]
// and [Manager.State]; all mutation goes through Login, Register, Logout, and
// CheckAuth.
//
// A Manager instance represents one signed-in principal (one browser profile,
// one device). Construct via [Builder.Build].
type Manager struct {
	config  Config
	records *session.Store
	client  APIClient
	tokens  *token.Manager
	audit   *internalaudit.Dispatcher
	metrics *internalmetrics.Metrics

	mu          sync.Mutex
	sess        Session
	state       State
	accessToken string
	checkErr    error
	// inflight is non-nil while a restore check is running; it is closed when
	// the check settles so attached callers can wake up.
	inflight chan struct{}
}

// Session returns a copy of the current session. The copy never changes after
// return; call again for fresh state.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// State reports where the session lifecycle stands: unknown, checking, or
// settled as authenticated or anonymous.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// MetricsSnapshot returns a deep copy of the Manager's metrics. Empty when
// metrics are disabled.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// Close flushes and stops the audit dispatcher. The Manager must not be used
// after Close.
func (m *Manager) Close() {
	m.audit.Close()
}

// setSession installs sess as the settled session under lock, waking any
// attached CheckAuth callers. Login, Logout, and restore all funnel through
// here so the checked flag can never regress.
func (m *Manager) setSession(sess Session, state State, checkErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess.Checked = true
	m.sess = sess
	m.state = state
	m.checkErr = checkErr

	if m.inflight != nil {
		close(m.inflight)
		m.inflight = nil
	}
}

func sessionFromIdentity(identity *Identity) Session {
	return Session{
		UserID:        identity.UserID,
		DisplayName:   identity.DisplayName,
		Email:         identity.Email,
		Role:          role.Resolve(identity.Role, identity.PublicMetadata),
		Authenticated: true,
		Checked:       true,
	}
}

func anonymousSession() Session {
	return Session{Checked: true}
}
