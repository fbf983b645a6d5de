package devcred

import (
	"context"
	"errors"

	"github.com/MrEthical07/devcred/credential"
)

const (
	auditEventIssued              = "credential_issued"
	auditEventRotated             = "credential_rotated"
	auditEventRotateInvalid       = "rotate_invalid"
	auditEventRotateConflict      = "rotate_conflict"
	auditEventRotateRateLimited   = "rotate_rate_limited"
	auditEventReplayDetected          = "replay_detected"
	auditEventReplayEscalationFailed  = "replay_escalation_failed"
	auditEventFamilyRevoked           = "family_revoked"
	auditEventFamilySuperseded        = "family_superseded"
	auditEventAuthenticateFailure     = "authenticate_failure"
	auditEventAuthenticateRateLimited = "authenticate_rate_limited"
	auditEventCleanupScrubbed         = "cleanup_scrubbed"
)

// AuditErrorCode defines a public type used by devcred APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidCredential AuditErrorCode = "invalid_credential"
	auditErrExpired           AuditErrorCode = "expired"
	auditErrInactive          AuditErrorCode = "inactive"
	auditErrConflict          AuditErrorCode = "conflict"
	auditErrReplay            AuditErrorCode = "replay"
	auditErrRateLimited       AuditErrorCode = "rate_limited"
	auditErrNotFound          AuditErrorCode = "family_not_found"
	auditErrUnavailable       AuditErrorCode = "backend_unavailable"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	familyID string,
	identityID string,
	deviceID string,
	generation uint32,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:  e.now().UTC(),
		EventType:  eventType,
		FamilyID:   familyID,
		IdentityID: identityID,
		DeviceID:   deviceID,
		Generation: generation,
		IP:         clientIPFromContext(ctx),
		UserAgent:  userAgentFromContext(ctx),
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrCredentialInvalid):
		return auditErrInvalidCredential
	case errors.Is(err, ErrCredentialExpired):
		return auditErrExpired
	case errors.Is(err, ErrCredentialInactive):
		return auditErrInactive
	case errors.Is(err, ErrRotationConflict):
		return auditErrConflict
	case errors.Is(err, ErrSecurityIncident):
		return auditErrReplay
	case errors.Is(err, ErrRotateRateLimited),
		errors.Is(err, ErrAuthenticateRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrFamilyNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

func (e *Engine) mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, credential.ErrNotFound):
		return ErrFamilyNotFound
	case errors.Is(err, credential.ErrRedisUnavailable),
		errors.Is(err, credential.ErrRecordCorrupt):
		return ErrStoreUnavailable
	default:
		return ErrStoreUnavailable
	}
}
