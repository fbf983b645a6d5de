// Package jwt wraps access token creation and parsing for the devcred engine.
// Access tokens are short-lived JWTs minted against a verified credential
// family; claims carry the identity, device, family, and generation binding.
package jwt
