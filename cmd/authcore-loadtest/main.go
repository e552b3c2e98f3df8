// Command authcore-loadtest measures the session record store and the
// single-flight restore path under concurrency.
//
// Phase 1 hammers Store.Save/Load across many profiles. Phase 2 builds one
// Manager per profile and fires concurrent CheckAuth calls at it, reporting
// how many callers attached to an in-flight check instead of starting their
// own (the single-flight ratio; ideal is one underlying check per Manager).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	authcore "github.com/communiversity/authcore"
	"github.com/communiversity/authcore/apiclient"
	"github.com/communiversity/authcore/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var (
		profiles    = flag.Int("profiles", 10000, "number of session profiles to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations in the store phase")
		checkers    = flag.Int("checkers", 64, "concurrent CheckAuth callers per manager")
		managers    = flag.Int("managers", 100, "managers in the single-flight phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "cv", "record key prefix")
	)
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer func() {
		_ = logger.Sync()
	}()

	if *profiles <= 0 || *concurrency <= 0 || *ops <= 0 || *checkers <= 0 || *managers <= 0 {
		fmt.Fprintln(os.Stderr, "profiles, concurrency, ops, checkers, and managers must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			logger.Fatalw("starting miniredis", "err", err)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		logger.Infow("using miniredis", "addr", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		logger.Infow("using redis", "addr", addr)
	}
	defer cleanup()

	logger.Infow("seeding records", "profiles", *profiles)
	startSeed := time.Now()
	stores := make([]*session.Store, *profiles)
	for i := 0; i < *profiles; i++ {
		stores[i] = session.NewStore(client, *prefix, fmt.Sprintf("profile-%d", i))
		if err := stores[i].Save(ctx, buildRecord(i), 24*time.Hour); err != nil {
			logger.Fatalw("seed save failed", "err", err)
		}
	}
	logger.Infow("seeded", "took", time.Since(startSeed).Round(time.Millisecond))

	storeStats := runStorePhase(ctx, stores, *ops, *concurrency)
	attached, underlying := runSingleFlightPhase(client, *prefix, *managers, *checkers, logger)

	fmt.Println("---- results ----")
	printStats("store-load", storeStats)
	fmt.Printf("single-flight: managers=%d checkers=%d underlying-checks=%d attached=%d\n",
		*managers, *checkers, underlying, attached)
}

func runStorePhase(ctx context.Context, stores []*session.Store, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(stores))
				t0 := time.Now()
				_, _, err := stores[idx].Load(ctx)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runSingleFlightPhase fires checkers concurrent CheckAuth calls at each of
// managers fresh Managers and reports how much work was deduplicated.
func runSingleFlightPhase(client redis.UniversalClient, prefix string, managers, checkers int, logger *zap.SugaredLogger) (attached, underlying uint64) {
	for i := 0; i < managers; i++ {
		api := apiclient.NewMock(apiclient.MockUser{
			Identifier:  fmt.Sprintf("probe-%d@example.com", i),
			Secret:      "probe",
			DisplayName: "Probe",
			Role:        "user",
		})

		cfg := authcore.DefaultConfig()
		cfg.Session.RedisPrefix = prefix
		cfg.Session.Profile = fmt.Sprintf("probe-%d", i)

		manager, err := authcore.New().
			WithConfig(cfg).
			WithRedis(client).
			WithAPIClient(api).
			WithMetricsEnabled(true).
			Build()
		if err != nil {
			logger.Fatalw("manager build", "err", err)
		}

		var wg sync.WaitGroup
		for c := 0; c < checkers; c++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = manager.CheckAuth(context.Background())
			}()
		}
		wg.Wait()

		snap := manager.MetricsSnapshot()
		attached += snap.Counters[authcore.MetricCheckAttached]
		underlying += snap.Counters[authcore.MetricCheckStarted]
		manager.Close()
	}
	return attached, underlying
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func buildRecord(i int) *session.Record {
	now := time.Now()
	return &session.Record{
		SchemaVersion: session.CurrentSchemaVersion,
		UserID:        fmt.Sprintf("user-%d", i),
		DisplayName:   fmt.Sprintf("User %d", i),
		Email:         fmt.Sprintf("user-%d@example.com", i),
		Role:          "user",
		IssuedAt:      now.Unix(),
		ExpiresAt:     now.Add(24 * time.Hour).Unix(),
	}
}
