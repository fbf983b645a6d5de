package devcred

import (
	"io"
	"time"

	"github.com/MrEthical07/devcred/credential"
	internalaudit "github.com/MrEthical07/devcred/internal/audit"
	"github.com/MrEthical07/devcred/jwt"
)

// FamilyStatus represents the lifecycle state of a credential family.
//
//	Docs: docs/rotation.md
type FamilyStatus = credential.Status

const (
	// FamilyActive is an exported constant or variable used by the credential engine.
	FamilyActive = credential.StatusActive
	// FamilyRevoked is an exported constant or variable used by the credential engine.
	FamilyRevoked = credential.StatusRevoked
	// FamilyCompromised is an exported constant or variable used by the credential engine.
	FamilyCompromised = credential.StatusCompromised
)

// RevokeReason classifies why a family is being revoked. Replay escalates
// the family to compromised; every other reason marks it revoked.
type RevokeReason uint8

const (
	// RevokeReasonLogout is an exported constant or variable used by the credential engine.
	RevokeReasonLogout RevokeReason = iota
	// RevokeReasonAdmin is an exported constant or variable used by the credential engine.
	RevokeReasonAdmin
	// RevokeReasonReplay is an exported constant or variable used by the credential engine.
	RevokeReasonReplay
)

// IssueInput carries the identity/device binding for a new credential
// family. Both identifiers are caller-defined opaque strings. TTL
// overrides Credential.TTL for this family when positive; zero keeps the
// configured default, negative is rejected.
type IssueInput struct {
	IdentityID string
	DeviceID   string
	TTL        time.Duration
}

// RotateOptions carries per-call overrides for [Engine.RotateWithOptions].
// Zero values fall back to the configured defaults; GraceWindow is capped
// at 5 minutes, matching the configuration bound.
type RotateOptions struct {
	TTL         time.Duration
	GraceWindow time.Duration
}

// CleanupOptions carries per-sweep retention overrides for
// [Engine.RunCleanupWithOptions]. Zero values fall back to the configured
// defaults.
type CleanupOptions struct {
	ExpiredRetention     time.Duration
	CompromisedRetention time.Duration
}

// IssueResult is returned by [Engine.Issue]. Credential is the opaque
// value handed to the client; it is never stored and cannot be recovered.
//
//	Docs: docs/rotation.md
type IssueResult struct {
	Credential         string
	FamilyID           string
	Generation         uint32
	ExpiresAt          time.Time
	SupersededFamilyID string
}

// RotateResult is returned by [Engine.Rotate]. Credential replaces the
// presented value, which enters its grace window and then dies.
//
//	Docs: docs/rotation.md
type RotateResult struct {
	Credential string
	FamilyID   string
	IdentityID string
	DeviceID   string
	Generation uint32
	ExpiresAt  time.Time
}

// AuthResult is returned by [Engine.Authenticate]. Stale reports that the
// presented value was the previous generation inside its grace window; the
// caller should prompt the client to rotate.
type AuthResult struct {
	IdentityID string
	DeviceID   string
	FamilyID   string
	Generation uint32
	Stale      bool
}

// FamilyInfo is returned by [Engine.FamilyInfo] for admin introspection.
type FamilyInfo struct {
	FamilyID   string
	IdentityID string
	DeviceID   string
	Status     FamilyStatus
	Generation uint32
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// CleanupCounts reports how many records a cleanup pass scrubbed, by
// eligibility class.
type CleanupCounts struct {
	ExpiredScrubbed     int
	CompromisedScrubbed int
}

// Clock abstracts time for the engine. Production uses the system clock;
// tests inject a fake to drive grace windows and retention deadlines.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// AuditEvent defines a public type used by devcred APIs.
//
// AuditEvent instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditEvent = internalaudit.Event

// AuditSink defines a public type used by devcred APIs.
//
// AuditSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditSink = internalaudit.Sink

// NoOpSink defines a public type used by devcred APIs.
//
// NoOpSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink defines a public type used by devcred APIs.
//
// ChannelSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink defines a public type used by devcred APIs.
//
// JSONWriterSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink describes the newchannelsink operation and its observable behavior.
//
// NewChannelSink may return an error when input validation, dependency calls, or security checks fail.
// NewChannelSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
//
// NewJSONWriterSink may return an error when input validation, dependency calls, or security checks fail.
// NewJSONWriterSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// AccessClaims defines a public type used by devcred APIs.
//
// AccessClaims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccessClaims = jwt.AccessClaims
