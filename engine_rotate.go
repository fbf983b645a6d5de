package devcred

import (
	"context"
	"time"

	"github.com/MrEthical07/devcred/internal/flows"
)

// Rotate exchanges a presented credential for the next generation. The
// presented value is single-use: exactly one concurrent caller wins the
// swap, losers inside the grace window receive [ErrRotationConflict], and
// a presentation after the grace window deadline is treated as replay,
// compromising the whole family.
//
//	Performance: 1 scripted Redis round-trip, plus 1 for the rotation
//	throttle when enabled.
//
//	Docs: docs/rotation.md
func (e *Engine) Rotate(ctx context.Context, presented string) (*RotateResult, error) {
	return e.RotateWithOptions(ctx, presented, RotateOptions{})
}

// RotateWithOptions rotates like [Engine.Rotate] with per-call overrides
// for the replacement credential's TTL and the grace window. Zero values
// keep the configured defaults; the grace window is capped at 5 minutes so
// a caller cannot widen the replay-acceptance window past the
// configuration bound.
func (e *Engine) RotateWithOptions(ctx context.Context, presented string, opts RotateOptions) (*RotateResult, error) {
	if e == nil || e.credStore == nil {
		return nil, ErrEngineNotReady
	}

	deps := e.flows.Rotate
	if opts.TTL > 0 {
		ttl := opts.TTL
		deps.CredentialTTL = func() time.Duration { return ttl }
	}
	if opts.GraceWindow > 0 {
		grace := opts.GraceWindow
		if grace > maxGraceWindow {
			grace = maxGraceWindow
		}
		deps.GraceWindow = func() time.Duration { return grace }
	}

	result := flows.RunRotate(ctx, presented, deps)

	switch result.Failure {
	case flows.RotateFailureNone:
		e.metricInc(MetricRotateSuccess)
		e.emitAudit(ctx, auditEventRotated, true, result.FamilyID, result.IdentityID, result.DeviceID, result.Generation, nil, nil)
		return &RotateResult{
			Credential: result.Credential,
			FamilyID:   result.FamilyID,
			IdentityID: result.IdentityID,
			DeviceID:   result.DeviceID,
			Generation: result.Generation,
			ExpiresAt:  time.Unix(result.Record.ExpiresAt, 0).UTC(),
		}, nil

	case flows.RotateFailureRateLimited:
		e.metricInc(MetricRotateRateLimited)
		e.emitAudit(ctx, auditEventRotateRateLimited, false, result.FamilyID, "", "", 0, ErrRotateRateLimited, nil)
		return nil, ErrRotateRateLimited

	case flows.RotateFailureConflict:
		e.metricInc(MetricRotateConflict)
		e.emitAudit(ctx, auditEventRotateConflict, false, result.FamilyID, result.IdentityID, result.DeviceID, result.Generation, ErrRotationConflict, nil)
		return nil, ErrRotationConflict

	case flows.RotateFailureReplay:
		return nil, e.handleReplay(ctx, result.FamilyID, result.IdentityID, result.DeviceID, result.Generation, "rotate")

	case flows.RotateFailureExpired:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateInvalid, false, result.FamilyID, "", "", 0, ErrCredentialExpired, nil)
		return nil, ErrCredentialExpired

	case flows.RotateFailureInactive:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateInvalid, false, result.FamilyID, "", "", 0, ErrCredentialInactive, nil)
		return nil, ErrCredentialInactive

	case flows.RotateFailureDecode, flows.RotateFailureNotFound, flows.RotateFailureMismatch:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateInvalid, false, result.FamilyID, "", "", 0, ErrCredentialInvalid, nil)
		return nil, ErrCredentialInvalid

	default:
		e.metricInc(MetricRotateFailure)
		return nil, ErrStoreUnavailable
	}
}

// handleReplay escalates the family to compromised and reports the
// incident. The status transition is a CAS in Redis; only the caller that
// actually flips the status emits the replay event and metrics, so
// concurrent replays of the same value are counted once.
func (e *Engine) handleReplay(
	ctx context.Context,
	familyID string,
	identityID string,
	deviceID string,
	generation uint32,
	surface string,
) error {
	changed, err := e.credStore.SetFamilyStatus(ctx, familyID, FamilyCompromised)
	if err != nil {
		// The compromise did not persist. The caller still fails closed,
		// but the family stays usable until a later status write lands, so
		// the failed escalation itself has to be visible.
		e.metricInc(MetricReplayEscalationFailed)
		e.emitAudit(ctx, auditEventReplayEscalationFailed, false, familyID, identityID, deviceID, generation, ErrStoreUnavailable, func() map[string]string {
			return map[string]string{
				"surface": surface,
			}
		})
		return ErrSecurityIncident
	}

	if changed {
		e.metricInc(MetricReplayDetected)
		e.metricInc(MetricFamilyCompromised)
		e.emitAudit(ctx, auditEventReplayDetected, false, familyID, identityID, deviceID, generation, ErrSecurityIncident, func() map[string]string {
			return map[string]string{
				"surface": surface,
			}
		})
	}

	return ErrSecurityIncident
}
