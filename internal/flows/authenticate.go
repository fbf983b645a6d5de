package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/devcred/credential"
)

// AuthFailureKind classifies authentication flow failures for root-level mapping.
type AuthFailureKind int

const (
	AuthFailureNone AuthFailureKind = iota
	AuthFailureDecode
	AuthFailureUnknown
	AuthFailureExpired
	AuthFailureInactive
	AuthFailureReplay
	AuthFailureStore
	AuthFailureRateLimited
)

// AuthResult carries the verified binding or failure metadata. Stale marks a
// success achieved through the grace slot; the caller should prompt the
// client to rotate.
type AuthResult struct {
	Failure    AuthFailureKind
	Err        error
	Stale      bool
	FamilyID   string
	IdentityID string
	DeviceID   string
	Generation uint32
	Record     *credential.Record
}

type AuthStore interface {
	Get(ctx context.Context, familyID string) (*credential.Record, error)
}

// AuthRateLimiter throttles brute-force guessing against a family: the
// check gates the attempt, the increment records a wrong-secret failure.
type AuthRateLimiter interface {
	CheckAuthFailures(ctx context.Context, familyID string) error
	IncrementAuthFailure(ctx context.Context, familyID string) error
}

// AuthenticateDeps captures authentication flow dependencies.
type AuthenticateDeps struct {
	Now              func() time.Time
	DecodeCredential func(string) (string, [32]byte, error)
	HashSecret       func([32]byte) [32]byte
	HashesEqual      func(a, b [32]byte) bool
	RateLimiter      AuthRateLimiter
	Store            AuthStore
}

// RunAuthenticate verifies a presented credential read-only, without
// rotating it. The grace slot admits the previous value until its deadline;
// past the deadline the previous value is a replay, not merely invalid.
func RunAuthenticate(ctx context.Context, presented string, deps AuthenticateDeps) AuthResult {
	familyID, providedSecret, err := deps.DecodeCredential(presented)
	if err != nil {
		return AuthResult{
			Failure: AuthFailureDecode,
			Err:     err,
		}
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckAuthFailures(ctx, familyID); err != nil {
			return AuthResult{
				Failure:  AuthFailureRateLimited,
				Err:      err,
				FamilyID: familyID,
			}
		}
	}

	rec, err := deps.Store.Get(ctx, familyID)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			recordAuthFailure(ctx, deps, familyID)
			return AuthResult{
				Failure:  AuthFailureUnknown,
				Err:      err,
				FamilyID: familyID,
			}
		}
		return AuthResult{
			Failure:  AuthFailureStore,
			Err:      err,
			FamilyID: familyID,
		}
	}

	now := deps.Now().Unix()
	providedHash := deps.HashSecret(providedSecret)

	switch {
	case deps.HashesEqual(providedHash, rec.CurrentHash):
		if rec.Status != credential.StatusActive {
			return inactiveResult(familyID, rec)
		}
		if rec.ExpiresAt <= now {
			return AuthResult{
				Failure:    AuthFailureExpired,
				FamilyID:   familyID,
				IdentityID: rec.IdentityID,
				DeviceID:   rec.DeviceID,
				Generation: rec.Generation,
				Record:     rec,
			}
		}
		return AuthResult{
			Failure:    AuthFailureNone,
			FamilyID:   familyID,
			IdentityID: rec.IdentityID,
			DeviceID:   rec.DeviceID,
			Generation: rec.Generation,
			Record:     rec,
		}

	case rec.HasPrevious && deps.HashesEqual(providedHash, rec.PreviousHash):
		if rec.Status != credential.StatusActive {
			return inactiveResult(familyID, rec)
		}
		if rec.PreviousDeadline > now {
			return AuthResult{
				Failure:    AuthFailureNone,
				Stale:      true,
				FamilyID:   familyID,
				IdentityID: rec.IdentityID,
				DeviceID:   rec.DeviceID,
				Generation: rec.Generation,
				Record:     rec,
			}
		}
		// Superseded value presented after the grace deadline. Someone
		// holds a value that was already rotated away.
		return AuthResult{
			Failure:    AuthFailureReplay,
			FamilyID:   familyID,
			IdentityID: rec.IdentityID,
			DeviceID:   rec.DeviceID,
			Generation: rec.Generation,
			Record:     rec,
		}

	default:
		// Unknown value against a known family. Not a replay: garbage and
		// truncated tokens land here too, and they carry no signal that a
		// previously valid value leaked.
		recordAuthFailure(ctx, deps, familyID)
		return AuthResult{
			Failure:    AuthFailureUnknown,
			FamilyID:   familyID,
			IdentityID: rec.IdentityID,
			DeviceID:   rec.DeviceID,
			Generation: rec.Generation,
			Record:     rec,
		}
	}
}

// recordAuthFailure charges a wrong-secret attempt against the family's
// failure budget. Only guessing failures count; expiry, inactive status,
// and replay outcomes have their own handling.
func recordAuthFailure(ctx context.Context, deps AuthenticateDeps, familyID string) {
	if deps.RateLimiter == nil {
		return
	}
	_ = deps.RateLimiter.IncrementAuthFailure(ctx, familyID)
}

func inactiveResult(familyID string, rec *credential.Record) AuthResult {
	return AuthResult{
		Failure:    AuthFailureInactive,
		FamilyID:   familyID,
		IdentityID: rec.IdentityID,
		DeviceID:   rec.DeviceID,
		Generation: rec.Generation,
		Record:     rec,
	}
}
