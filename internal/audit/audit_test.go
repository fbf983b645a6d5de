package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestJSONWriterSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		EventType: "credential_issued",
		FamilyID:  "fam-1",
		Success:   true,
	})
	sink.Emit(context.Background(), Event{
		Timestamp: time.Unix(1700000001, 0).UTC(),
		EventType: "credential_rotated",
		Success:   true,
	})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var event Event
	if err := json.Unmarshal(lines[0], &event); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if event.EventType != "credential_issued" || event.FamilyID != "fam-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestJSONWriterSinkOmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		EventType: "authenticate_failure",
	})

	line := buf.String()
	for _, field := range []string{"family_id", "identity_id", "device_id", "ip", "user_agent", "error", "metadata"} {
		if bytes.Contains([]byte(line), []byte(field)) {
			t.Fatalf("expected %q omitted from %s", field, line)
		}
	}
}

func TestChannelSinkDelivers(t *testing.T) {
	sink := NewChannelSink(4)

	sink.Emit(context.Background(), Event{EventType: "credential_issued"})

	select {
	case event := <-sink.Events():
		if event.EventType != "credential_issued" {
			t.Fatalf("unexpected event: %+v", event)
		}
	default:
		t.Fatal("expected buffered event")
	}
}

func TestChannelSinkHonorsContextWhenFull(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), Event{EventType: "first"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sink.Emit(ctx, Event{EventType: "second"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit must return once the context is cancelled")
	}
}

func TestNoOpSink(t *testing.T) {
	NoOpSink{}.Emit(context.Background(), Event{EventType: "anything"})
}
