package devcred

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *captureSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *captureSink) byType(eventType string) []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []AuditEvent
	for _, event := range s.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}

type gateSink struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateSink() *gateSink {
	return &gateSink{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
}

func newAuditedEngine(t *testing.T, sink AuditSink) (*Engine, *fakeClock) {
	t.Helper()

	_, client := newTestRedis(t)
	clock := newFakeClock()

	cfg := DefaultConfig()
	cfg.Security.EnableRotateThrottle = false
	cfg.Audit.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithClock(clock).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, clock
}

func TestAuditIssueEventCarriesCallerContext(t *testing.T) {
	sink := &captureSink{}
	engine, _ := newAuditedEngine(t, sink)

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	ctx = WithUserAgent(ctx, "test-agent/1.0")

	result, err := engine.Issue(ctx, IssueInput{
		IdentityID: "identity-1",
		DeviceID:   "device-1",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	engine.Close()

	events := sink.byType("credential_issued")
	if len(events) != 1 {
		t.Fatalf("expected 1 issued event, got %d", len(events))
	}
	event := events[0]
	if event.FamilyID != result.FamilyID || event.IdentityID != "identity-1" || event.DeviceID != "device-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.IP != "203.0.113.7" || event.UserAgent != "test-agent/1.0" {
		t.Fatalf("expected caller context on event, got ip=%q ua=%q", event.IP, event.UserAgent)
	}
	if !event.Success {
		t.Fatal("issued event must be marked success")
	}
}

func TestAuditSupersedeEvent(t *testing.T) {
	sink := &captureSink{}
	engine, _ := newAuditedEngine(t, sink)

	first, err := engine.Issue(context.Background(), IssueInput{
		IdentityID: "identity-1",
		DeviceID:   "device-1",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := engine.Issue(context.Background(), IssueInput{
		IdentityID: "identity-1",
		DeviceID:   "device-1",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	engine.Close()

	events := sink.byType("family_superseded")
	if len(events) != 1 {
		t.Fatalf("expected 1 supersede event, got %d", len(events))
	}
	if events[0].FamilyID != first.FamilyID {
		t.Fatalf("expected superseded family %q, got %q", first.FamilyID, events[0].FamilyID)
	}
	if events[0].Metadata["replacement_family"] != second.FamilyID {
		t.Fatalf("expected replacement family metadata, got %v", events[0].Metadata)
	}
}

func TestAuditReplayEventEmittedOnce(t *testing.T) {
	sink := &captureSink{}
	engine, clock := newAuditedEngine(t, sink)

	issued, err := engine.Issue(context.Background(), IssueInput{
		IdentityID: "identity-1",
		DeviceID:   "device-1",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := engine.Rotate(context.Background(), issued.Credential); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	clock.Advance(engine.config.Credential.GraceWindow + time.Second)

	// Replaying the dead value twice must report the incident twice to the
	// caller but record it once: the second attempt finds the family already
	// compromised.
	if _, err := engine.Rotate(context.Background(), issued.Credential); err == nil {
		t.Fatal("expected replay to fail")
	}
	if _, err := engine.Rotate(context.Background(), issued.Credential); err == nil {
		t.Fatal("expected second replay to fail")
	}

	engine.Close()

	events := sink.byType("replay_detected")
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 replay event, got %d", len(events))
	}

	// A rotate-surface replay carries the same record binding an
	// authenticate-surface replay does.
	event := events[0]
	if event.FamilyID != issued.FamilyID || event.IdentityID != "identity-1" || event.DeviceID != "device-1" {
		t.Fatalf("replay event lost its binding: %+v", event)
	}
	if event.Generation != 1 {
		t.Fatalf("expected head generation 1 on replay event, got %d", event.Generation)
	}
	if event.Metadata["surface"] != "rotate" {
		t.Fatalf("expected rotate surface metadata, got %v", event.Metadata)
	}
}

func TestAuditReplayEscalationFailureIsRecorded(t *testing.T) {
	sink := &captureSink{}
	mr, client := newTestRedis(t)
	clock := newFakeClock()

	cfg := DefaultConfig()
	cfg.Security.EnableRotateThrottle = false
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithClock(clock).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	// With Redis gone, the compromise write cannot land; the failed
	// escalation must still leave a trace.
	mr.Close()

	if err := engine.handleReplay(context.Background(), "family-1", "identity-1", "device-1", 3, "rotate"); !errors.Is(err, ErrSecurityIncident) {
		t.Fatalf("expected ErrSecurityIncident, got %v", err)
	}

	engine.Close()

	events := sink.byType("replay_escalation_failed")
	if len(events) != 1 {
		t.Fatalf("expected 1 escalation failure event, got %d", len(events))
	}
	event := events[0]
	if event.FamilyID != "family-1" || event.IdentityID != "identity-1" || event.DeviceID != "device-1" || event.Generation != 3 {
		t.Fatalf("unexpected escalation failure event: %+v", event)
	}
	if event.Error != "backend_unavailable" {
		t.Fatalf("expected backend_unavailable error code, got %q", event.Error)
	}
	if event.Metadata["surface"] != "rotate" {
		t.Fatalf("expected rotate surface metadata, got %v", event.Metadata)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricReplayEscalationFailed] != 1 {
		t.Fatalf("expected escalation failure counter 1, got %d", snap.Counters[MetricReplayEscalationFailed])
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	sink := newGateSink()
	d := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)

	d.Emit(context.Background(), AuditEvent{EventType: "e1"})
	<-sink.entered // worker is now blocked inside the sink

	d.Emit(context.Background(), AuditEvent{EventType: "e2"}) // fills the buffer
	d.Emit(context.Background(), AuditEvent{EventType: "e3"}) // dropped

	if got := d.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped event, got %d", got)
	}

	close(sink.release)
	d.Close()
}

func TestAuditDisabledDispatcherIsNil(t *testing.T) {
	if d := newAuditDispatcher(AuditConfig{Enabled: false}, &captureSink{}); d != nil {
		t.Fatal("expected nil dispatcher when audit is disabled")
	}

	// Nil dispatcher methods are safe.
	var d *auditDispatcher
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected zero dropped on nil dispatcher")
	}
}
