package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID addresses one counter or histogram slot.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginNetworkError
	MetricRegisterSuccess
	MetricRegisterFailure
	MetricLogout
	MetricCheckStarted
	MetricCheckAttached
	MetricCheckRestored
	MetricCheckAnonymous
	MetricCheckFailed
	MetricRevalidationSkipped
	MetricRecordMigrated
	MetricCheckLatency

	// MetricIDCount is the number of defined metric IDs.
	MetricIDCount
)

// HistogramBuckets is the number of fixed latency buckets per histogram.
const HistogramBuckets = 8

// bucket upper bounds, in order; the last bucket is +Inf.
var bucketBounds = [HistogramBuckets - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	time.Second,
}

// Config controls metric collection.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// paddedCounter keeps each hot counter on its own cache line.
type paddedCounter struct {
	value atomic.Uint64
	_     [56]byte
}

// Metrics holds atomic counters and optional latency histograms.
// The zero value is unusable; construct via [New].
type Metrics struct {
	enabled bool
	latency bool

	counters   [MetricIDCount]paddedCounter
	histograms [MetricIDCount][HistogramBuckets]paddedCounter
}

// Snapshot is a point-in-time deep copy of all non-zero metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New creates a Metrics instance. When cfg.Enabled is false every operation
// is a no-op, so callers never need nil checks on the hot path.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Inc atomically increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].value.Add(1)
}

// LatencyEnabled reports whether histogram observation is active.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.latency
}

// Observe records a latency sample into the fixed bucket set for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.latency || id >= MetricIDCount {
		return
	}

	bucket := HistogramBuckets - 1
	for i, bound := range bucketBounds {
		if d <= bound {
			bucket = i
			break
		}
	}
	m.histograms[id][bucket].value.Add(1)
}

// Snapshot returns a deep copy of all counters and histograms that have
// recorded at least one event.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := m.counters[id].value.Load(); v > 0 {
			snap.Counters[id] = v
		}
	}
	if m.latency {
		for id := MetricID(0); id < MetricIDCount; id++ {
			var total uint64
			buckets := make([]uint64, HistogramBuckets)
			for i := range buckets {
				buckets[i] = m.histograms[id][i].value.Load()
				total += buckets[i]
			}
			if total > 0 {
				snap.Histograms[id] = buckets
			}
		}
	}

	return snap
}
