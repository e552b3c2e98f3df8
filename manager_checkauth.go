package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/communiversity/authcore/role"
	"github.com/communiversity/authcore/session"
	"github.com/redis/go-redis/v9"

	internalmetrics "github.com/communiversity/authcore/internal/metrics"
)

// CheckAuth settles the session state against the durable record and the API.
//
// The first caller runs the restore; concurrent callers attach to the same
// in-flight check and wake up together when it settles. Once the session is
// checked, CheckAuth is a no-op: the checked flag never regresses within a
// Manager lifetime, and later identity changes arrive only through Login,
// Register, and Logout.
//
// The restore itself runs on a background context bounded by the configured
// restore timeout, so one caller's cancellation cannot abort the shared
// check. A caller whose ctx ends before the check settles gets its ctx error;
// the check still completes and settles the state for everyone else.
func (m *Manager) CheckAuth(ctx context.Context) error {
	if m == nil {
		return ErrManagerNotReady
	}

	m.mu.Lock()
	if m.state.Checked() {
		err := m.checkErr
		m.mu.Unlock()
		return err
	}

	if m.inflight != nil {
		done := m.inflight
		m.mu.Unlock()
		m.metrics.Inc(internalmetrics.MetricCheckAttached)
		return m.awaitCheck(ctx, done)
	}

	done := make(chan struct{})
	m.inflight = done
	m.state = StateChecking
	m.mu.Unlock()

	m.metrics.Inc(internalmetrics.MetricCheckStarted)
	go m.runRestore()

	return m.awaitCheck(ctx, done)
}

func (m *Manager) awaitCheck(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		m.mu.Lock()
		err := m.checkErr
		m.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runRestore performs one restore end to end and always settles the state.
func (m *Manager) runRestore() {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.Restore.Timeout)
	defer cancel()

	start := time.Now()
	sess, state, checkErr := m.restore(ctx)
	m.setSession(sess, state, checkErr)
	m.metrics.Observe(internalmetrics.MetricCheckLatency, time.Since(start))
}

func (m *Manager) restore(ctx context.Context) (Session, State, error) {
	rec, migrated, err := m.records.Load(ctx)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if corrupt := corruptionDetail(err); corrupt != "" {
				m.emitAudit(ctx, auditRecordCorrupted, "", false, corrupt, nil)
			}
			m.metrics.Inc(internalmetrics.MetricCheckAnonymous)
			m.emitAudit(ctx, auditCheckAnonymous, "", true, "", nil)
			return anonymousSession(), StateCheckedAnonymous, nil
		}
		return m.settleFailure(ctx, "", errors.Join(ErrRecordUnavailable, err))
	}

	if migrated {
		m.metrics.Inc(internalmetrics.MetricRecordMigrated)
		m.emitAudit(ctx, auditRecordMigrated, rec.UserID, true, "", nil)
	}

	switch m.config.Restore.Policy {
	case RestoreOptimistic:
		return m.adoptRecord(ctx, rec)
	case RestoreRevalidateTTL:
		recent, err := m.records.RevalidatedRecently(ctx)
		if err == nil && recent {
			m.metrics.Inc(internalmetrics.MetricRevalidationSkipped)
			return m.adoptRecord(ctx, rec)
		}
		return m.revalidate(ctx, rec)
	default:
		return m.revalidate(ctx, rec)
	}
}

// adoptRecord trusts the persisted record without an API round trip.
func (m *Manager) adoptRecord(ctx context.Context, rec *session.Record) (Session, State, error) {
	sess := Session{
		UserID:        rec.UserID,
		DisplayName:   rec.DisplayName,
		Email:         rec.Email,
		Role:          role.Resolve(rec.Role, nil),
		Authenticated: true,
		Checked:       true,
	}

	m.metrics.Inc(internalmetrics.MetricCheckRestored)
	m.emitAudit(ctx, auditCheckRestored, rec.UserID, true, "", nil)
	return sess, StateCheckedAuthenticated, nil
}

// revalidate confirms the persisted record against the API before trusting it.
func (m *Manager) revalidate(ctx context.Context, rec *session.Record) (Session, State, error) {
	m.mu.Lock()
	accessToken := m.accessToken
	m.mu.Unlock()

	identity, err := m.client.Me(ctx, accessToken)
	if err != nil {
		err = classify(err)

		if errors.Is(err, ErrUnauthorized) {
			// The API no longer honors this session; the record is stale.
			if delErr := m.records.Delete(ctx); delErr != nil {
				log.Printf("authcore: deleting stale session record: %v", delErr)
			}
			m.metrics.Inc(internalmetrics.MetricCheckAnonymous)
			m.emitAudit(ctx, auditCheckAnonymous, rec.UserID, true, errText(err), nil)
			return anonymousSession(), StateCheckedAnonymous, nil
		}

		if ctx.Err() != nil {
			err = errors.Join(ErrCheckTimeout, err)
		}
		return m.settleFailure(ctx, rec.UserID, err)
	}

	sess := sessionFromIdentity(identity)

	if err := m.records.Save(ctx, m.buildRecord(sess), m.config.Session.RecordTTL); err != nil {
		log.Printf("authcore: refreshing session record: %v", err)
	}
	if m.config.Restore.Policy == RestoreRevalidateTTL {
		if err := m.records.MarkRevalidated(ctx, m.config.Restore.RevalidationWindow); err != nil {
			log.Printf("authcore: marking revalidation: %v", err)
		}
	}

	m.metrics.Inc(internalmetrics.MetricCheckRestored)
	m.emitAudit(ctx, auditCheckRestored, sess.UserID, true, "", nil)
	return sess, StateCheckedAuthenticated, nil
}

// settleFailure ends a restore that could not reach an authoritative answer.
// The state still settles as checked: guards must be able to route, and an
// unreachable backend must not wedge every navigation in a loading state.
func (m *Manager) settleFailure(ctx context.Context, userID string, err error) (Session, State, error) {
	m.metrics.Inc(internalmetrics.MetricCheckFailed)
	m.emitAudit(ctx, auditCheckFailed, userID, false, errText(err), nil)

	if m.config.Restore.DegradeToAnonymousOnNetworkError {
		return anonymousSession(), StateCheckedAnonymous, nil
	}
	return anonymousSession(), StateCheckedAnonymous, err
}

func corruptionDetail(err error) string {
	if errors.Is(err, session.ErrRecordCorrupt) {
		return err.Error()
	}
	return ""
}
