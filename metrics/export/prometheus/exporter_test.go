package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	devcred "github.com/MrEthical07/devcred"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLiveEngine(t *testing.T) *devcred.Engine {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := devcred.DefaultConfig()
	cfg.Metrics.Enabled = true

	engine, err := devcred.New().
		WithConfig(cfg).
		WithRedis(client).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := engine.Issue(context.Background(), devcred.IssueInput{
		IdentityID: "identity-1",
		DeviceID:   "device-1",
	}); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	return engine
}

type fakeSource struct {
	snapshot devcred.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() devcred.MetricsSnapshot {
	return f.snapshot
}

func (f *fakeSource) AuditDropped() uint64 {
	return f.dropped
}

func TestRenderCounters(t *testing.T) {
	source := &fakeSource{
		snapshot: devcred.MetricsSnapshot{
			Counters: map[devcred.MetricID]uint64{
				devcred.MetricIssueSuccess:   3,
				devcred.MetricRotateSuccess:  7,
				devcred.MetricReplayDetected: 1,
			},
			Histograms: map[devcred.MetricID][]uint64{},
		},
		dropped: 2,
	}

	output := NewPrometheusExporterFromSource(source).Render()

	for _, want := range []string{
		"devcred_issue_success_total 3",
		"devcred_rotate_success_total 7",
		"devcred_replay_detected_total 1",
		"devcred_authenticate_success_total 0",
		"devcred_audit_dropped_total 2",
		"# TYPE devcred_issue_success_total counter",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected output to contain %q\n%s", want, output)
		}
	}
}

func TestRenderHistogramCumulative(t *testing.T) {
	source := &fakeSource{
		snapshot: devcred.MetricsSnapshot{
			Counters: map[devcred.MetricID]uint64{},
			Histograms: map[devcred.MetricID][]uint64{
				devcred.MetricAuthenticateLatency: {2, 1, 0, 0, 0, 0, 0, 1},
			},
		},
	}

	output := NewPrometheusExporterFromSource(source).Render()

	for _, want := range []string{
		`devcred_authenticate_latency_seconds_bucket{le="0.005"} 2`,
		`devcred_authenticate_latency_seconds_bucket{le="0.01"} 3`,
		`devcred_authenticate_latency_seconds_bucket{le="+Inf"} 4`,
		"devcred_authenticate_latency_seconds_count 4",
		"# TYPE devcred_authenticate_latency_seconds histogram",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected output to contain %q\n%s", want, output)
		}
	}
}

func TestRenderEmptySource(t *testing.T) {
	source := &fakeSource{
		snapshot: devcred.MetricsSnapshot{
			Counters:   map[devcred.MetricID]uint64{},
			Histograms: map[devcred.MetricID][]uint64{},
		},
	}

	if output := NewPrometheusExporterFromSource(source).Render(); output != "" {
		t.Fatalf("expected empty output, got %q", output)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	source := &fakeSource{
		snapshot: devcred.MetricsSnapshot{
			Counters: map[devcred.MetricID]uint64{
				devcred.MetricAuthenticateSuccess: 5,
			},
			Histograms: map[devcred.MetricID][]uint64{},
		},
	}

	server := httptest.NewServer(NewPrometheusExporterFromSource(source).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}

	buf := make([]byte, 64*1024)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "devcred_authenticate_success_total 5") {
		t.Fatalf("expected counter in response, got %q", string(buf[:n]))
	}
}

func TestRenderAgainstLiveEngine(t *testing.T) {
	engine := newLiveEngine(t)

	output := NewPrometheusExporter(engine).Render()
	if !strings.Contains(output, "devcred_issue_success_total 1") {
		t.Fatalf("expected live issue counter\n%s", output)
	}
}
