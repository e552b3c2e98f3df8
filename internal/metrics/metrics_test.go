package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInc_DisabledIsNoOp(t *testing.T) {
	m := New(Config{Enabled: false})
	m.Inc(MetricLoginSuccess)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("disabled metrics must stay empty, got %v", snap.Counters)
	}
}

func TestInc_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricCheckLatency, time.Millisecond)
	_ = m.Snapshot()
}

func TestInc_OutOfRangeIgnored(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricIDCount)
	m.Inc(MetricID(9999))

	if len(m.Snapshot().Counters) != 0 {
		t.Fatal("out-of-range IDs must be ignored")
	}
}

func TestSnapshot_OnlyNonZero(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLogout)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("expected 2, got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLogout] != 1 {
		t.Fatalf("expected 1, got %d", snap.Counters[MetricLogout])
	}
	if _, ok := snap.Counters[MetricLoginFailure]; ok {
		t.Fatal("zero counters must not appear in snapshots")
	}
}

func TestObserve_BucketsLatency(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	m.Observe(MetricCheckLatency, 3*time.Millisecond)    // bucket 0 (<=5ms)
	m.Observe(MetricCheckLatency, 70*time.Millisecond)   // bucket 4 (<=100ms)
	m.Observe(MetricCheckLatency, 10*time.Second)        // bucket 7 (+Inf)
	m.Observe(MetricCheckLatency, 250*time.Millisecond)  // bucket 5 (<=250ms)
	m.Observe(MetricCheckLatency, 1000*time.Millisecond) // bucket 6 (<=1s)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricCheckLatency]
	if len(buckets) != HistogramBuckets {
		t.Fatalf("expected %d buckets, got %d", HistogramBuckets, len(buckets))
	}

	want := []uint64{1, 0, 0, 0, 1, 1, 1, 1}
	for i, v := range want {
		if buckets[i] != v {
			t.Fatalf("bucket %d: got %d want %d (all: %v)", i, buckets[i], v, buckets)
		}
	}
}

func TestObserve_RequiresLatencyFlag(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Observe(MetricCheckLatency, time.Millisecond)

	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("latency observation must be off without the flag")
	}
	if m.LatencyEnabled() {
		t.Fatal("LatencyEnabled must report the flag")
	}
}

func TestInc_Concurrent(t *testing.T) {
	m := New(Config{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				m.Inc(MetricCheckStarted)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricCheckStarted]; got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}
