package devcred

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the credential engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrIssueInvalid is an exported constant or variable used by the credential engine.
	ErrIssueInvalid = errors.New("invalid issue request")
	// ErrCredentialInvalid is an exported constant or variable used by the credential engine.
	ErrCredentialInvalid = errors.New("invalid credential")
	// ErrCredentialExpired is an exported constant or variable used by the credential engine.
	ErrCredentialExpired = errors.New("credential expired")
	// ErrCredentialInactive is an exported constant or variable used by the credential engine.
	ErrCredentialInactive = errors.New("credential family inactive")
	// ErrRotationConflict is an exported constant or variable used by the credential engine.
	ErrRotationConflict = errors.New("rotation conflict")
	// ErrSecurityIncident is an exported constant or variable used by the credential engine.
	ErrSecurityIncident = errors.New("credential replay detected")
	// ErrRotateRateLimited is an exported constant or variable used by the credential engine.
	ErrRotateRateLimited = errors.New("rotation rate limited")
	// ErrAuthenticateRateLimited is an exported constant or variable used by the credential engine.
	ErrAuthenticateRateLimited = errors.New("authentication rate limited")
	// ErrFamilyNotFound is an exported constant or variable used by the credential engine.
	ErrFamilyNotFound = errors.New("credential family not found")
	// ErrAccessTokensDisabled is an exported constant or variable used by the credential engine.
	ErrAccessTokensDisabled = errors.New("access tokens disabled")
	// ErrAccessTokenInvalid is an exported constant or variable used by the credential engine.
	ErrAccessTokenInvalid = errors.New("invalid access token")
	// ErrStoreUnavailable is an exported constant or variable used by the credential engine.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
