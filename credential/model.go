package credential

// Status is the stored lifecycle state of a credential family.
// Expiry is derived from [Record.ExpiresAt] at read time and is
// intentionally not a stored status.
type Status uint8

const (
	// StatusActive is an exported constant or variable used by the credential engine.
	StatusActive Status = iota
	// StatusRevoked is an exported constant or variable used by the credential engine.
	StatusRevoked
	// StatusCompromised is an exported constant or variable used by the credential engine.
	StatusCompromised
)

// String describes the string operation and its observable behavior.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusRevoked:
		return "revoked"
	case StatusCompromised:
		return "compromised"
	default:
		return "unknown"
	}
}

// Record defines a public type used by devcred APIs.
//
// Record instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// A Record is the head of one credential family: the current generation's
// secret hash plus a single grace slot holding the previous generation's
// hash until PreviousDeadline passes. Generations below N-1 are gone from
// the store entirely; presenting one of their values is indistinguishable
// from garbage, which keeps unrelated malformed tokens from being mistaken
// for replay evidence.
type Record struct {
	FamilyID   string
	IdentityID string
	DeviceID   string

	Generation uint32
	Status     Status

	HasPrevious bool
	Scrubbed    bool

	CurrentHash      [32]byte
	PreviousHash     [32]byte
	PreviousDeadline int64

	IssuedAt        int64
	ExpiresAt       int64
	StatusChangedAt int64
}
