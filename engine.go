package devcred

import (
	"context"
	"time"

	"github.com/MrEthical07/devcred/credential"
	"github.com/MrEthical07/devcred/internal/flows"
	"github.com/MrEthical07/devcred/internal/rate"
	"github.com/MrEthical07/devcred/jwt"
)

// Engine defines a public type used by devcred APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config      Config
	credStore   *credential.Store
	rateLimiter *rate.Limiter
	audit       *auditDispatcher
	metrics     *Metrics
	jwtManager  *jwt.Manager
	clock       Clock
	flows       flows.Deps
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock.Now()
}

// Ping describes the ping operation and its observable behavior.
//
// Ping may return an error when input validation, dependency calls, or security checks fail.
// Ping does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.credStore == nil {
		return 0, ErrEngineNotReady
	}
	return e.credStore.Ping(ctx)
}

// FamilyInfo looks up the credential family bound to (identityID, deviceID)
// for admin introspection. Returns [ErrFamilyNotFound] when no family is
// bound to the device.
func (e *Engine) FamilyInfo(ctx context.Context, identityID, deviceID string) (*FamilyInfo, error) {
	if e == nil || e.credStore == nil {
		return nil, ErrEngineNotReady
	}

	familyID, err := e.credStore.FamilyIDForDevice(ctx, identityID, deviceID)
	if err != nil {
		return nil, e.mapStoreError(err)
	}
	if familyID == "" {
		return nil, ErrFamilyNotFound
	}

	rec, err := e.credStore.Get(ctx, familyID)
	if err != nil {
		return nil, e.mapStoreError(err)
	}

	return &FamilyInfo{
		FamilyID:   rec.FamilyID,
		IdentityID: rec.IdentityID,
		DeviceID:   rec.DeviceID,
		Status:     rec.Status,
		Generation: rec.Generation,
		IssuedAt:   time.Unix(rec.IssuedAt, 0).UTC(),
		ExpiresAt:  time.Unix(rec.ExpiresAt, 0).UTC(),
	}, nil
}
