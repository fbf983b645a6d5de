// Package rate provides internal primitives used to build Redis-backed rate limit keys,
// errors, and limiter behavior for credential rotation workflows.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - drl: — rotation attempts per-family
//   - daf: — authentication failures per-family
//
// # What this package must NOT do
//
//   - Decide what counts as an authentication failure (the Engine does).
//   - Be imported outside the devcred module.
package rate
