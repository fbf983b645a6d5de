package devcred

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricIssueSuccess)
	m.Observe(MetricAuthenticateLatency, 3*time.Millisecond)

	if m.Value(MetricIssueSuccess) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricRotateSuccess)
	m.Inc(MetricRotateSuccess)
	m.Inc(MetricReplayDetected)

	if got := m.Value(MetricRotateSuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricRotateSuccess] != 2 || snap.Counters[MetricReplayDetected] != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap.Counters)
	}
	if snap.Counters[MetricIssueSuccess] != 0 {
		t.Fatal("untouched counters must be zero")
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricAuthenticateLatency, 2*time.Millisecond)   // bucket 0
	m.Observe(MetricAuthenticateLatency, 8*time.Millisecond)   // bucket 1
	m.Observe(MetricAuthenticateLatency, 900*time.Millisecond) // bucket 7

	// Non-latency metric IDs are ignored by Observe.
	m.Observe(MetricRotateSuccess, time.Millisecond)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricAuthenticateLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	if buckets[0] != 1 || buckets[1] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected bucket counts: %v", buckets)
	}
	if _, ok := snap.Histograms[MetricRotateSuccess]; ok {
		t.Fatal("only the latency histogram should be exported")
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{10 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{501 * time.Millisecond, 7},
		{5 * time.Second, 7},
	}
	for _, tc := range cases {
		if got := bucketIndex(tc.d); got != tc.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricAuthenticateSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricAuthenticateSuccess); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}

func TestEngineCountsCoreOperations(t *testing.T) {
	engine, _ := newTestEngine(t, func(cfg *Config) {
		cfg.Metrics.Enabled = true
	})

	issued, err := engine.Issue(context.Background(), IssueInput{
		IdentityID: "identity-1",
		DeviceID:   "device-1",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := engine.Authenticate(context.Background(), issued.Credential); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if _, err := engine.Rotate(context.Background(), issued.Credential); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if _, err := engine.Authenticate(context.Background(), "garbage"); err == nil {
		t.Fatal("expected authenticate failure")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricIssueSuccess] != 1 {
		t.Fatalf("issue counter = %d", snap.Counters[MetricIssueSuccess])
	}
	if snap.Counters[MetricAuthenticateSuccess] != 1 {
		t.Fatalf("authenticate counter = %d", snap.Counters[MetricAuthenticateSuccess])
	}
	if snap.Counters[MetricRotateSuccess] != 1 {
		t.Fatalf("rotate counter = %d", snap.Counters[MetricRotateSuccess])
	}
	if snap.Counters[MetricAuthenticateFailure] != 1 {
		t.Fatalf("authenticate failure counter = %d", snap.Counters[MetricAuthenticateFailure])
	}
}
