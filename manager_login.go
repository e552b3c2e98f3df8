package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/communiversity/authcore/session"

	internalmetrics "github.com/communiversity/authcore/internal/metrics"
)

// Login exchanges credentials for an authenticated session. On success the
// in-memory session is replaced, the bearer token is adopted, and a session
// record is persisted best-effort. Empty credentials are rejected locally
// with [ErrInvalidCredentials] before any network call.
//
// Failures map to the sentinel taxonomy: [ErrInvalidCredentials],
// [ErrNetworkFailure], or [ErrServerFailure].
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	if identifier == "" || secret == "" {
		return ErrInvalidCredentials
	}

	identity, accessToken, err := m.client.Login(ctx, identifier, secret)
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrNetworkFailure) {
			m.metrics.Inc(internalmetrics.MetricLoginNetworkError)
		} else {
			m.metrics.Inc(internalmetrics.MetricLoginFailure)
		}
		m.emitAudit(ctx, auditLoginFailed, "", false, errText(err), nil)
		return err
	}

	m.adoptIdentity(ctx, identity, accessToken)
	m.metrics.Inc(internalmetrics.MetricLoginSuccess)
	m.emitAudit(ctx, auditLogin, identity.UserID, true, "", nil)
	return nil
}

// Register creates an account on the content platform and signs the new
// account in, following the same session adoption path as [Manager.Login].
// Missing email or secret is rejected locally with [ErrRegistrationInvalid].
func (m *Manager) Register(ctx context.Context, input RegisterInput) error {
	if m == nil {
		return ErrManagerNotReady
	}
	if input.Email == "" || input.Secret == "" {
		return ErrRegistrationInvalid
	}

	identity, accessToken, err := m.client.Register(ctx, input)
	if err != nil {
		err = classify(err)
		m.metrics.Inc(internalmetrics.MetricRegisterFailure)
		m.emitAudit(ctx, auditRegisterFailed, "", false, errText(err), nil)
		return err
	}

	m.adoptIdentity(ctx, identity, accessToken)
	m.metrics.Inc(internalmetrics.MetricRegisterSuccess)
	m.emitAudit(ctx, auditRegister, identity.UserID, true, "", nil)
	return nil
}

// Logout ends the session locally no matter what the platform or the record
// store say: the in-memory session settles anonymous even when the remote
// revocation or record delete fails. The returned error reports those remote
// failures so callers can log them; it never means the visitor is still
// signed in.
func (m *Manager) Logout(ctx context.Context) error {
	if m == nil {
		return ErrManagerNotReady
	}

	m.mu.Lock()
	userID := m.sess.UserID
	accessToken := m.accessToken
	m.accessToken = ""
	m.mu.Unlock()

	// The local session must end even when the API or the record store is
	// unreachable; remote failures are reported but never block logout.
	var remoteErr error
	if err := m.client.Logout(ctx, accessToken); err != nil {
		remoteErr = classify(err)
	}
	if err := m.records.Delete(ctx); err != nil {
		remoteErr = errors.Join(remoteErr, ErrRecordUnavailable)
	}

	m.setSession(anonymousSession(), StateCheckedAnonymous, nil)
	m.metrics.Inc(internalmetrics.MetricLogout)
	m.emitAudit(ctx, auditLogout, userID, remoteErr == nil, errText(remoteErr), nil)
	return remoteErr
}

// adoptIdentity installs identity as the authenticated session and persists
// the durable record. Persistence is best effort: a record that cannot be
// written only costs the next restore, never the login itself.
func (m *Manager) adoptIdentity(ctx context.Context, identity *Identity, accessToken string) {
	sess := sessionFromIdentity(identity)

	m.mu.Lock()
	m.accessToken = accessToken
	m.mu.Unlock()

	m.setSession(sess, StateCheckedAuthenticated, nil)

	if err := m.records.Save(ctx, m.buildRecord(sess), m.config.Session.RecordTTL); err != nil {
		log.Printf("authcore: persisting session record: %v", err)
	}
}

func (m *Manager) buildRecord(sess Session) *session.Record {
	now := time.Now()
	rec := &session.Record{
		SchemaVersion: session.CurrentSchemaVersion,
		UserID:        sess.UserID,
		DisplayName:   sess.DisplayName,
		Email:         sess.Email,
		Role:          string(sess.Role),
		IssuedAt:      now.Unix(),
		ExpiresAt:     now.Add(m.config.Session.RecordTTL).Unix(),
	}

	// A verifiable token expiry caps the record lifetime.
	m.mu.Lock()
	accessToken := m.accessToken
	m.mu.Unlock()
	if accessToken != "" {
		if exp, ok := m.tokens.ExpiresAt(accessToken); ok && exp.Unix() < rec.ExpiresAt {
			rec.ExpiresAt = exp.Unix()
		}
	}

	return rec
}
