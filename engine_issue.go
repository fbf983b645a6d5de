package devcred

import (
	"context"
	"strings"

	"github.com/MrEthical07/devcred/credential"
	"github.com/MrEthical07/devcred/internal"
)

// Issue creates a fresh credential family bound to (identityID, deviceID)
// and returns the generation-0 opaque credential. An existing active family
// on the same device is atomically revoked and reported via
// SupersededFamilyID, keeping at most one active family per device.
// IssueInput.TTL overrides the configured credential TTL for this family
// when positive.
//
//	Performance: 1 scripted Redis round-trip.
//	Security: only the SHA-256 hash of the credential secret is stored;
//	the returned value cannot be reconstructed from Redis.
//
//	Docs: docs/rotation.md
func (e *Engine) Issue(ctx context.Context, input IssueInput) (*IssueResult, error) {
	if e == nil || e.credStore == nil {
		return nil, ErrEngineNotReady
	}

	identityID := strings.TrimSpace(input.IdentityID)
	deviceID := strings.TrimSpace(input.DeviceID)
	if identityID == "" || deviceID == "" {
		return nil, ErrIssueInvalid
	}
	if len(identityID) > 255 || len(deviceID) > 255 {
		return nil, ErrIssueInvalid
	}
	if input.TTL < 0 {
		return nil, ErrIssueInvalid
	}

	ttl := input.TTL
	if ttl == 0 {
		ttl = e.config.Credential.TTL
	}

	familyID := internal.NewFamilyID()
	secret, err := internal.NewCredentialSecret()
	if err != nil {
		return nil, ErrStoreUnavailable
	}

	now := e.now()
	expiresAt := now.Add(ttl)

	rec := &credential.Record{
		FamilyID:        familyID.String(),
		IdentityID:      identityID,
		DeviceID:        deviceID,
		Generation:      0,
		Status:          credential.StatusActive,
		CurrentHash:     internal.HashCredentialSecret(secret),
		IssuedAt:        now.Unix(),
		ExpiresAt:       expiresAt.Unix(),
		StatusChangedAt: now.Unix(),
	}

	superseded, err := e.credStore.Issue(ctx, rec)
	if err != nil {
		return nil, e.mapStoreError(err)
	}

	encoded, err := internal.EncodeCredential(rec.FamilyID, secret)
	if err != nil {
		return nil, ErrStoreUnavailable
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventIssued, true, rec.FamilyID, identityID, deviceID, rec.Generation, nil, nil)

	if superseded != "" {
		e.metricInc(MetricIssueSuperseded)
		e.metricInc(MetricFamilyRevoked)
		e.emitAudit(ctx, auditEventFamilySuperseded, true, superseded, identityID, deviceID, 0, nil, func() map[string]string {
			return map[string]string{
				"replacement_family": rec.FamilyID,
			}
		})
	}

	return &IssueResult{
		Credential:         encoded,
		FamilyID:           rec.FamilyID,
		Generation:         rec.Generation,
		ExpiresAt:          expiresAt.UTC(),
		SupersededFamilyID: superseded,
	}, nil
}
