// Package devcred provides a low-latency device credential engine with
// single-use rotating refresh credentials, Redis-backed family state,
// replay detection with family-wide revocation, and optional JWT access
// token minting.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// devcred is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (MetricsSnapshot, IssueResult, etc.). All internal
// coordination — flow orchestration, rate limiting, audit dispatch — lives
// under internal/ and is never exported. The credential record store and
// its Redis scripts live in the credential sub-package.
//
// # What this package must NOT do
//
//   - Expose Redis clients, record encodings, or Lua script details in its
//     public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports devcred (no import cycles).
//
// # Performance contract
//
// Authenticate is the hot path. It is read-only and allowed exactly one
// Redis round-trip per call. Rotate, Issue, and RevokeFamily are allowed
// one scripted Redis round-trip each, plus one for the rotation throttle
// when enabled.
package devcred
