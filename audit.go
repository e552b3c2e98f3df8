package authcore

import (
	"context"
	"time"

	internalaudit "github.com/communiversity/authcore/internal/audit"
)

const (
	auditLogin           = "login"
	auditLoginFailed     = "login_failed"
	auditRegister        = "register"
	auditRegisterFailed  = "register_failed"
	auditLogout          = "logout"
	auditCheckRestored   = "check_restored"
	auditCheckAnonymous  = "check_anonymous"
	auditCheckFailed     = "check_failed"
	auditRecordMigrated  = "record_migrated"
	auditRecordCorrupted = "record_corrupted"
)

func (m *Manager) emitAudit(ctx context.Context, eventType, userID string, success bool, errMsg string, metadata map[string]string) {
	if m.audit == nil {
		return
	}

	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["user_agent"] = ua
	}

	m.audit.Emit(ctx, internalaudit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Profile:   m.config.Session.Profile,
		Path:      requestPathFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Error:     errMsg,
		Metadata:  metadata,
	})
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full. Always zero when audit is disabled.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.Dropped()
}
