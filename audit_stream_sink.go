package devcred

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// StreamSink appends audit events to a Redis stream via XADD, capped with
// MAXLEN ~. Emit never blocks the dispatcher on stream errors; a failed
// append is dropped.
//
//	Docs: docs/audit.md
type StreamSink struct {
	redis  redis.UniversalClient
	stream string
	maxLen int64
}

// NewStreamSink describes the newstreamsink operation and its observable behavior.
//
// NewStreamSink may return an error when input validation, dependency calls, or security checks fail.
// NewStreamSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewStreamSink(redisClient redis.UniversalClient, stream string, maxLen int64) *StreamSink {
	if stream == "" {
		stream = "devcred:audit"
	}
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &StreamSink{
		redis:  redisClient,
		stream: stream,
		maxLen: maxLen,
	}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit may return an error when input validation, dependency calls, or security checks fail.
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *StreamSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.redis == nil {
		return
	}

	values := map[string]interface{}{
		"timestamp":  event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"event_type": event.EventType,
		"success":    strconv.FormatBool(event.Success),
	}
	if event.FamilyID != "" {
		values["family_id"] = event.FamilyID
	}
	if event.IdentityID != "" {
		values["identity_id"] = event.IdentityID
	}
	if event.DeviceID != "" {
		values["device_id"] = event.DeviceID
	}
	// Generation 0 is a real value (the issued credential), so presence is
	// keyed on the family binding rather than the number itself.
	if event.FamilyID != "" {
		values["generation"] = strconv.FormatUint(uint64(event.Generation), 10)
	}
	if event.IP != "" {
		values["ip"] = event.IP
	}
	if event.Error != "" {
		values["error"] = event.Error
	}
	if len(event.Metadata) > 0 {
		if raw, err := json.Marshal(event.Metadata); err == nil {
			values["metadata"] = string(raw)
		}
	}

	_ = s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: values,
	}).Err()
}
