package devcred

import (
	"context"

	"github.com/MrEthical07/devcred/internal/flows"
)

// Authenticate verifies a presented credential without rotating it. The
// current generation validates normally; the previous generation validates
// as Stale until its grace deadline, after which it is a replay and the
// family is compromised. Unknown values fail closed with
// [ErrCredentialInvalid] and carry no replay signal.
//
// When Security.EnableAuthFailureThrottle is set, wrong-secret attempts
// against a family are counted, and a family over its failure budget is
// rejected with [ErrAuthenticateRateLimited] before the store is read.
//
//	Performance: 1 Redis round-trip (read-only, hot path), plus 1 for
//	the failure throttle when enabled.
//
//	Docs: docs/rotation.md
func (e *Engine) Authenticate(ctx context.Context, presented string) (*AuthResult, error) {
	if e == nil || e.credStore == nil {
		return nil, ErrEngineNotReady
	}

	start := e.now()
	result := flows.RunAuthenticate(ctx, presented, e.flows.Authenticate)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricAuthenticateLatency, e.now().Sub(start))
	}

	switch result.Failure {
	case flows.AuthFailureNone:
		e.metricInc(MetricAuthenticateSuccess)
		if result.Stale {
			e.metricInc(MetricAuthenticateStale)
		}
		return &AuthResult{
			IdentityID: result.IdentityID,
			DeviceID:   result.DeviceID,
			FamilyID:   result.FamilyID,
			Generation: result.Generation,
			Stale:      result.Stale,
		}, nil

	case flows.AuthFailureRateLimited:
		e.metricInc(MetricAuthenticateRateLimited)
		e.emitAudit(ctx, auditEventAuthenticateRateLimited, false, result.FamilyID, "", "", 0, ErrAuthenticateRateLimited, nil)
		return nil, ErrAuthenticateRateLimited

	case flows.AuthFailureReplay:
		e.metricInc(MetricAuthenticateFailure)
		return nil, e.handleReplay(ctx, result.FamilyID, result.IdentityID, result.DeviceID, result.Generation, "authenticate")

	case flows.AuthFailureExpired:
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, result.FamilyID, result.IdentityID, result.DeviceID, result.Generation, ErrCredentialExpired, nil)
		return nil, ErrCredentialExpired

	case flows.AuthFailureInactive:
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, result.FamilyID, result.IdentityID, result.DeviceID, result.Generation, ErrCredentialInactive, nil)
		return nil, ErrCredentialInactive

	case flows.AuthFailureDecode, flows.AuthFailureUnknown:
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, result.FamilyID, "", "", 0, ErrCredentialInvalid, nil)
		return nil, ErrCredentialInvalid

	default:
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrStoreUnavailable
	}
}
