package authcore

import (
	"errors"
	"time"

	"github.com/communiversity/authcore/token"
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session SessionConfig
	Restore RestoreConfig
	Token   TokenConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by authcore APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string
	// Profile scopes the durable record to one device or installation.
	Profile   string
	RecordTTL time.Duration
}

/*
====================================
RESTORE CONFIG
====================================
*/

// RestorePolicy defines a public type used by authcore APIs.
//
// RestorePolicy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RestorePolicy int

const (
	// RestoreRevalidate confirms a persisted record against the API on every
	// restore. The default and the safest policy.
	RestoreRevalidate RestorePolicy = iota
	// RestoreOptimistic trusts an unexpired persisted record without an API
	// round trip. Revocation is only noticed when a later API call fails.
	RestoreOptimistic
	// RestoreRevalidateTTL revalidates at most once per RevalidationWindow,
	// trusting the record in between.
	RestoreRevalidateTTL
)

// RestoreConfig defines a public type used by authcore APIs.
//
// RestoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RestoreConfig struct {
	Policy RestorePolicy
	// Timeout bounds the whole restore, including the API round trip. The
	// restore runs on its own context so an attached caller's cancellation
	// cannot abort the shared check.
	Timeout            time.Duration
	RevalidationWindow time.Duration
	// DegradeToAnonymousOnNetworkError settles the session as anonymous when
	// the API is unreachable during restore, instead of surfacing the error
	// to every guard. The failure is still audited and counted.
	DegradeToAnonymousOnNetworkError bool
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by authcore APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	SigningMethod token.SigningMethod
	Key           []byte
	Leeway        time.Duration
	// AllowUnverified treats the token as opaque and reads claims without
	// signature verification. The API stays authoritative either way.
	AllowUnverified bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the stock configuration: the revalidating restore
// policy, a seven-day record TTL, and audit and metrics disabled.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: "cv",
			Profile:     "default",
			RecordTTL:   7 * 24 * time.Hour,
		},
		Restore: RestoreConfig{
			Policy:                           RestoreRevalidate,
			Timeout:                          15 * time.Second,
			RevalidationWindow:               5 * time.Minute,
			DegradeToAnonymousOnNetworkError: true,
		},
		Token: TokenConfig{
			AllowUnverified: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Token.Key != nil {
		out.Token.Key = append([]byte(nil), cfg.Token.Key...)
	}
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Session.RedisPrefix == "" {
		return errors.New("session RedisPrefix must not be empty")
	}
	if c.Session.RecordTTL <= 0 {
		return errors.New("session RecordTTL must be positive")
	}
	if c.Session.RecordTTL < time.Minute {
		return errors.New("session RecordTTL below one minute is almost certainly a unit mistake")
	}

	switch c.Restore.Policy {
	case RestoreRevalidate, RestoreOptimistic, RestoreRevalidateTTL:
	default:
		return errors.New("invalid restore policy")
	}
	if c.Restore.Timeout <= 0 {
		return errors.New("restore Timeout must be positive")
	}
	if c.Restore.Timeout > 2*time.Minute {
		return errors.New("restore Timeout above two minutes defeats the point of a timeout")
	}
	if c.Restore.Policy == RestoreRevalidateTTL && c.Restore.RevalidationWindow <= 0 {
		return errors.New("RestoreRevalidateTTL requires a positive RevalidationWindow")
	}

	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("token Leeway out of range")
	}
	if c.Token.SigningMethod == "" && !c.Token.AllowUnverified {
		return errors.New("token SigningMethod required unless AllowUnverified is set")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit BufferSize must be positive when audit is enabled")
	}

	return nil
}
