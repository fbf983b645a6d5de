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

	devcred "github.com/MrEthical07/devcred"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type familyState struct {
	credential string
	mu         sync.Mutex
}

func main() {
	var (
		families    = flag.Int("families", 100000, "number of credential families to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (authenticate + rotate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "dc", "credential key prefix")
	)
	flag.Parse()

	if *families <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "families, concurrency, and ops must be > 0")
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
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := devcred.DefaultConfig()
	cfg.Store.RedisPrefix = *prefix
	// The throttle would dominate a single-family hot loop; disable it for
	// the benchmark.
	cfg.Security.EnableRotateThrottle = false

	engine, err := devcred.New().
		WithConfig(cfg).
		WithRedis(client).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]familyState, *families)
	fmt.Printf("seeding %d families...\n", *families)
	startSeed := time.Now()
	for i := 0; i < *families; i++ {
		result, err := engine.Issue(ctx, devcred.IssueInput{
			IdentityID: fmt.Sprintf("identity-%d", i),
			DeviceID:   fmt.Sprintf("device-%d", i),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		states[i].credential = result.Credential
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	authStats := runAuthenticatePhase(ctx, engine, states, *ops, *concurrency)
	rotateStats := runRotatePhase(ctx, engine, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("authenticate", authStats)
	printStats("rotate", rotateStats)
}

func runAuthenticatePhase(ctx context.Context, engine *devcred.Engine, states []familyState, ops, concurrency int) phaseStats {
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
				idx := r.Intn(len(states))
				state := &states[idx]

				state.mu.Lock()
				cred := state.credential
				state.mu.Unlock()

				t0 := time.Now()
				_, err := engine.Authenticate(ctx, cred)
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

func runRotatePhase(ctx context.Context, engine *devcred.Engine, states []familyState, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := &states[idx]

				state.mu.Lock()
				t0 := time.Now()
				result, err := engine.Rotate(ctx, state.credential)
				d := time.Since(t0)
				if err == nil {
					state.credential = result.Credential
				} else {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

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
