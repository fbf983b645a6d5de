// Package credential provides Redis-backed persistence for device credential
// families and the compact binary record encoding used on rotation hot paths.
//
// # Binary encoding
//
// Each family is stored in Redis as one binary record (schema version v1)
// holding the head generation, the secret hashes for the current and
// immediately prior generation, and the grace deadline for the prior one.
// Only SHA-256 hashes of secrets are ever persisted.
//
// # Atomicity
//
// All state transitions run as single Lua scripts: issue (supersede + install),
// rotate (compare-and-swap on the current hash), status transitions
// (revoke/compromise with monotonic rules), and scrub (full-blob CAS). Two
// racing rotations of the same value therefore produce exactly one winner.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Record] model.
// It does NOT classify presented values as valid/stale/replayed, emit audit
// events, or enforce retention policy — those responsibilities belong to the
// Engine.
//
// # What this package must NOT do
//
//   - Import devcred or jwt (no upward imports).
//   - Store plaintext secrets in [Record] fields.
//   - Decide when a family is compromised — it only applies transitions.
package credential
