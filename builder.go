package authcore

import (
	"errors"

	"github.com/communiversity/authcore/session"
	"github.com/communiversity/authcore/token"
	"github.com/redis/go-redis/v9"

	internalaudit "github.com/communiversity/authcore/internal/audit"
	internalmetrics "github.com/communiversity/authcore/internal/metrics"
)

// Builder assembles a [Manager] from its dependencies. A Builder is single
// use; Build fails on reuse.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	client APIClient

	auditSink AuditSink

	built bool
}

// New starts a Builder seeded with the stock configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the seeded configuration with a private copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the session record store. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAPIClient sets the content-platform API client. Required.
func (b *Builder) WithAPIClient(client APIClient) *Builder {
	b.client = client
	return b
}

// WithAuditSink sets the audit destination and switches auditing on.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles CheckAuth latency bucketing. Implies nothing
// about counters; enable metrics separately.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the record store, token manager,
// audit dispatcher, and metrics, and returns the ready Manager. Build fails
// when Redis or the API client is missing, when the configuration does not
// validate, or when the Builder was already used.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.client == nil {
		return nil, errors.New("API client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		SigningMethod:   cfg.Token.SigningMethod,
		Key:             cfg.Token.Key,
		Leeway:          cfg.Token.Leeway,
		AllowUnverified: cfg.Token.AllowUnverified,
	})
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		config:  cfg,
		records: session.NewStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.Profile),
		client:  b.client,
		tokens:  tokens,
		state:   StateUnchecked,
	}

	manager.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	manager.metrics = internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Metrics.Enabled,
		EnableLatency: cfg.Metrics.EnableLatencyHistograms,
	})

	b.built = true
	return manager, nil
}
