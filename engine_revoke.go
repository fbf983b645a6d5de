package devcred

import (
	"context"
	"errors"

	"github.com/MrEthical07/devcred/credential"
)

// RevokeFamily revokes the credential family bound to (identityID,
// deviceID). The operation is idempotent: an unknown device or an already
// revoked family returns (0, nil). [RevokeReasonReplay] escalates to
// compromised instead of revoked; compromised is sticky and never
// downgraded.
//
// Because the whole family lives in a single record, the transition is
// visible to every subsequent Rotate and Authenticate immediately.
//
//	Performance: 1 Redis round-trip to resolve the device binding plus
//	1 scripted round-trip for the status CAS.
//
//	Docs: docs/rotation.md
func (e *Engine) RevokeFamily(ctx context.Context, identityID, deviceID string, reason RevokeReason) (int, error) {
	if e == nil || e.credStore == nil {
		return 0, ErrEngineNotReady
	}

	familyID, err := e.credStore.FamilyIDForDevice(ctx, identityID, deviceID)
	if err != nil {
		return 0, e.mapStoreError(err)
	}
	if familyID == "" {
		return 0, nil
	}

	return e.revokeFamilyID(ctx, familyID, identityID, deviceID, reason)
}

// RevokeFamilyID revokes a family directly by its identifier. Used by
// admin tooling that already resolved the family.
func (e *Engine) RevokeFamilyID(ctx context.Context, familyID string, reason RevokeReason) (int, error) {
	if e == nil || e.credStore == nil {
		return 0, ErrEngineNotReady
	}
	return e.revokeFamilyID(ctx, familyID, "", "", reason)
}

func (e *Engine) revokeFamilyID(ctx context.Context, familyID, identityID, deviceID string, reason RevokeReason) (int, error) {
	target := FamilyRevoked
	if reason == RevokeReasonReplay {
		target = FamilyCompromised
	}

	changed, err := e.credStore.SetFamilyStatus(ctx, familyID, target)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return 0, nil
		}
		return 0, e.mapStoreError(err)
	}
	if !changed {
		return 0, nil
	}

	if target == FamilyCompromised {
		e.metricInc(MetricFamilyCompromised)
	} else {
		e.metricInc(MetricFamilyRevoked)
	}
	e.emitAudit(ctx, auditEventFamilyRevoked, true, familyID, identityID, deviceID, 0, nil, func() map[string]string {
		return map[string]string{
			"reason": revokeReasonLabel(reason),
			"status": target.String(),
		}
	})

	return 1, nil
}

func revokeReasonLabel(reason RevokeReason) string {
	switch reason {
	case RevokeReasonAdmin:
		return "admin"
	case RevokeReasonReplay:
		return "replay"
	default:
		return "logout"
	}
}
