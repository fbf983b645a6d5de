package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/devcred/credential"
)

// RotateFailureKind classifies rotation flow failures for root-level mapping.
type RotateFailureKind int

const (
	RotateFailureNone RotateFailureKind = iota
	RotateFailureDecode
	RotateFailureRateLimited
	RotateFailureNextSecret
	RotateFailureNotFound
	RotateFailureExpired
	RotateFailureInactive
	RotateFailureConflict
	RotateFailureReplay
	RotateFailureMismatch
	RotateFailureStore
	RotateFailureEncode
)

// RotateResult carries either the replacement credential or failure metadata.
type RotateResult struct {
	Failure    RotateFailureKind
	Err        error
	FamilyID   string
	IdentityID string
	DeviceID   string
	Generation uint32
	Record     *credential.Record
	Credential string
}

type RotateRateLimiter interface {
	CheckRotate(ctx context.Context, familyID string) error
}

type RotateStore interface {
	Rotate(
		ctx context.Context,
		familyID string,
		providedHash [32]byte,
		nextHash [32]byte,
		graceDeadline int64,
		expiresAt int64,
	) (*credential.Record, error)
}

// RotateDeps captures rotation flow dependencies.
type RotateDeps struct {
	Now              func() time.Time
	DecodeCredential func(string) (string, [32]byte, error)
	NewSecret        func() ([32]byte, error)
	HashSecret       func([32]byte) [32]byte
	EncodeCredential func(string, [32]byte) (string, error)
	GraceWindow      func() time.Duration
	CredentialTTL    func() time.Duration
	RateLimiter      RotateRateLimiter
	Store            RotateStore
}

// RunRotate executes single-use rotation logic without root package dependencies.
func RunRotate(ctx context.Context, presented string, deps RotateDeps) RotateResult {
	familyID, providedSecret, err := deps.DecodeCredential(presented)
	if err != nil {
		return RotateResult{
			Failure: RotateFailureDecode,
			Err:     err,
		}
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckRotate(ctx, familyID); err != nil {
			return RotateResult{
				Failure:  RotateFailureRateLimited,
				Err:      err,
				FamilyID: familyID,
			}
		}
	}

	nextSecret, err := deps.NewSecret()
	if err != nil {
		return RotateResult{
			Failure:  RotateFailureNextSecret,
			Err:      err,
			FamilyID: familyID,
		}
	}

	now := deps.Now()
	rec, err := deps.Store.Rotate(
		ctx,
		familyID,
		deps.HashSecret(providedSecret),
		deps.HashSecret(nextSecret),
		now.Add(deps.GraceWindow()).Unix(),
		now.Add(deps.CredentialTTL()).Unix(),
	)
	if err != nil {
		failure := RotateFailureStore
		switch {
		case errors.Is(err, credential.ErrNotFound):
			failure = RotateFailureNotFound
		case errors.Is(err, credential.ErrExpired):
			failure = RotateFailureExpired
		case errors.Is(err, credential.ErrInactive):
			failure = RotateFailureInactive
		case errors.Is(err, credential.ErrRotationRace):
			failure = RotateFailureConflict
		case errors.Is(err, credential.ErrReplayedValue):
			failure = RotateFailureReplay
		case errors.Is(err, credential.ErrValueMismatch):
			failure = RotateFailureMismatch
		}
		result := RotateResult{
			Failure:  failure,
			Err:      err,
			FamilyID: familyID,
		}
		// Grace-slot failures carry the stored record, keeping the
		// identity/device binding on conflict and replay outcomes.
		if rec != nil {
			result.IdentityID = rec.IdentityID
			result.DeviceID = rec.DeviceID
			result.Generation = rec.Generation
			result.Record = rec
		}
		return result
	}

	encoded, err := deps.EncodeCredential(familyID, nextSecret)
	if err != nil {
		return RotateResult{
			Failure:    RotateFailureEncode,
			Err:        err,
			FamilyID:   familyID,
			IdentityID: rec.IdentityID,
			DeviceID:   rec.DeviceID,
			Generation: rec.Generation,
			Record:     rec,
		}
	}

	return RotateResult{
		Failure:    RotateFailureNone,
		FamilyID:   familyID,
		IdentityID: rec.IdentityID,
		DeviceID:   rec.DeviceID,
		Generation: rec.Generation,
		Record:     rec,
		Credential: encoded,
	}
}
