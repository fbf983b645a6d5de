package devcred

import (
	"testing"
	"time"
)

func TestBuildRequiresRedis(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected build failure without redis client")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	_, client := newTestRedis(t)

	cfg := DefaultConfig()
	cfg.Credential.GraceWindow = 0

	if _, err := New().WithConfig(cfg).WithRedis(client).Build(); err == nil {
		t.Fatal("expected build failure on invalid config")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	_, client := newTestRedis(t)

	b := New().WithRedis(client)
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuildDefaultsClock(t *testing.T) {
	_, client := newTestRedis(t)

	engine, err := New().WithRedis(client).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	before := time.Now().Add(-time.Second)
	if engine.now().Before(before) {
		t.Fatal("default clock must track wall time")
	}
}

func TestBuildRejectsBadAccessTokenKey(t *testing.T) {
	_, client := newTestRedis(t)

	cfg := DefaultConfig()
	cfg.AccessToken.Enabled = true
	cfg.AccessToken.SigningMethod = "ed25519"
	cfg.AccessToken.PrivateKey = []byte("too short")

	if _, err := New().WithConfig(cfg).WithRedis(client).Build(); err == nil {
		t.Fatal("expected build failure on malformed signing key")
	}
}

func TestWithMetricsEnabledOverride(t *testing.T) {
	_, client := newTestRedis(t)

	engine, err := New().
		WithRedis(client).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if !engine.metrics.Enabled() || !engine.metrics.LatencyEnabled() {
		t.Fatal("expected metrics and latency histograms enabled")
	}
}

func TestSecurityReport(t *testing.T) {
	engine, _ := newTestEngine(t, func(cfg *Config) {
		cfg.Audit.Enabled = true
		cfg.Metrics.Enabled = true
	})

	report := engine.SecurityReport()
	if report.RotateThrottleActive {
		t.Fatal("throttle disabled in test engine")
	}
	if !report.AuditEnabled || !report.MetricsEnabled {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.GraceWindow != engine.config.Credential.GraceWindow {
		t.Fatalf("unexpected grace window: %v", report.GraceWindow)
	}
	if report.AccessTokensEnabled {
		t.Fatal("access tokens disabled by default")
	}
	if report.SigningAlgorithm != "ed25519" {
		t.Fatalf("unexpected signing algorithm: %q", report.SigningAlgorithm)
	}
}
