package devcred

import "context"

// MintAccessToken authenticates the presented credential and, when valid,
// mints a short-lived JWT carrying the identity/device/family binding and
// the current generation. Requires AccessToken.Enabled.
//
//	Docs: docs/access_tokens.md
func (e *Engine) MintAccessToken(ctx context.Context, presented string) (string, *AuthResult, error) {
	if e == nil || e.credStore == nil {
		return "", nil, ErrEngineNotReady
	}
	if e.jwtManager == nil {
		return "", nil, ErrAccessTokensDisabled
	}

	auth, err := e.Authenticate(ctx, presented)
	if err != nil {
		return "", nil, err
	}

	token, err := e.jwtManager.CreateAccess(
		auth.IdentityID,
		auth.DeviceID,
		auth.FamilyID,
		auth.Generation,
		e.now(),
	)
	if err != nil {
		return "", nil, ErrAccessTokenInvalid
	}

	return token, auth, nil
}

// ValidateAccessToken parses and verifies a minted access token offline.
// No Redis round-trip: revocation takes effect when the token expires and
// the client is forced back through Rotate.
//
//	Docs: docs/access_tokens.md
func (e *Engine) ValidateAccessToken(tokenStr string) (*AccessClaims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.jwtManager == nil {
		return nil, ErrAccessTokensDisabled
	}

	claims, err := e.jwtManager.ParseAccess(tokenStr, e.now)
	if err != nil {
		return nil, ErrAccessTokenInvalid
	}

	return claims, nil
}
