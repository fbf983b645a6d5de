// Package internal contains helper utilities that are intentionally private to devcred,
// including secure secret generation and the opaque credential wire encoding.
//
// # Sub-packages
//
//   - audit — async event dispatch (Sink implementations and the Event model)
//   - flows — pure-function flow orchestrators for Engine operations
//   - rate — core Redis-backed rate limit primitives
//
// # What this package must NOT do
//
//   - Export types that appear in the public devcred API.
//   - Be imported by any package outside the devcred module.
package internal
