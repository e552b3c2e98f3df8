package authcore

import (
	"context"
	"io"

	internalaudit "github.com/communiversity/authcore/internal/audit"
	internalmetrics "github.com/communiversity/authcore/internal/metrics"
	"github.com/communiversity/authcore/role"
)

// State represents the lifecycle of the Session record within one Manager
// lifetime. A Manager starts Unchecked, passes through Checking exactly once
// on the first restore, and never regresses out of a Checked state.
type State uint8

const (
	// StateUnchecked is an exported constant or variable used by the session core.
	StateUnchecked State = iota
	// StateChecking is an exported constant or variable used by the session core.
	StateChecking
	// StateCheckedAuthenticated is an exported constant or variable used by the session core.
	StateCheckedAuthenticated
	// StateCheckedAnonymous is an exported constant or variable used by the session core.
	StateCheckedAnonymous
)

// Checked reports whether an authority check has completed at least once.
func (s State) Checked() bool {
	return s == StateCheckedAuthenticated || s == StateCheckedAnonymous
}

// Session is the authoritative in-memory record of "who is logged in".
// It is owned exclusively by the [Manager]; route guards only read copies.
//
// Invariant: Authenticated implies UserID and Role are non-empty.
type Session struct {
	UserID      string
	DisplayName string
	Email       string
	Role        role.Role

	Authenticated bool
	Checked       bool
}

// Identity is the account payload returned by the content-platform API for
// login, register, and me calls. Role and PublicMetadata are the two
// historically divergent role sources; [role.Resolve] unifies them.
type Identity struct {
	UserID         string         `json:"id"`
	DisplayName    string         `json:"displayName"`
	Email          string         `json:"email"`
	Role           string         `json:"role,omitempty"`
	PublicMetadata map[string]any `json:"publicMetadata,omitempty"`
}

// RegisterInput is the input for [Manager.Register].
type RegisterInput struct {
	DisplayName string
	Email       string
	Secret      string
}

// APIClient is the interface the Manager uses to talk to the external
// content-platform API. It is the only component permitted to carry
// authentication calls; implementations must map transport and HTTP failures
// onto the authcore error sentinels (ErrInvalidCredentials, ErrNetworkFailure,
// ErrServerFailure, ErrUnauthorized).
//
// An empty accessToken on Me and Logout is legal: cookie-based deployments
// carry the credential out of band.
type APIClient interface {
	Login(ctx context.Context, identifier, secret string) (*Identity, string, error)
	Register(ctx context.Context, input RegisterInput) (*Identity, string, error)
	Me(ctx context.Context, accessToken string) (*Identity, error)
	Logout(ctx context.Context, accessToken string) error
}

// AuditEvent is a structured audit record emitted by the Manager.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the Manager's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess is an exported constant or variable used by the session core.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginFailure is an exported constant or variable used by the session core.
	MetricLoginFailure = internalmetrics.MetricLoginFailure
	// MetricLoginNetworkError is an exported constant or variable used by the session core.
	MetricLoginNetworkError = internalmetrics.MetricLoginNetworkError
	// MetricRegisterSuccess is an exported constant or variable used by the session core.
	MetricRegisterSuccess = internalmetrics.MetricRegisterSuccess
	// MetricRegisterFailure is an exported constant or variable used by the session core.
	MetricRegisterFailure = internalmetrics.MetricRegisterFailure
	// MetricLogout is an exported constant or variable used by the session core.
	MetricLogout = internalmetrics.MetricLogout
	// MetricCheckStarted is an exported constant or variable used by the session core.
	MetricCheckStarted = internalmetrics.MetricCheckStarted
	// MetricCheckAttached is an exported constant or variable used by the session core.
	MetricCheckAttached = internalmetrics.MetricCheckAttached
	// MetricCheckRestored is an exported constant or variable used by the session core.
	MetricCheckRestored = internalmetrics.MetricCheckRestored
	// MetricCheckAnonymous is an exported constant or variable used by the session core.
	MetricCheckAnonymous = internalmetrics.MetricCheckAnonymous
	// MetricCheckFailed is an exported constant or variable used by the session core.
	MetricCheckFailed = internalmetrics.MetricCheckFailed
	// MetricRevalidationSkipped is an exported constant or variable used by the session core.
	MetricRevalidationSkipped = internalmetrics.MetricRevalidationSkipped
	// MetricRecordMigrated is an exported constant or variable used by the session core.
	MetricRecordMigrated = internalmetrics.MetricRecordMigrated
	// MetricCheckLatency is an exported constant or variable used by the session core.
	MetricCheckLatency = internalmetrics.MetricCheckLatency
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
