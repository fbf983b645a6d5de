// Package flows contains pure orchestration logic for credential operations.
//
// Each flow receives its dependencies as a Deps struct of function values and
// narrow interfaces, runs the operation, and returns a Result carrying either
// the successful outcome or a FailureKind the root engine maps to sentinel
// errors, audit events, and metrics.
//
// # Architecture boundaries
//
// Flows never import the devcred root package and never touch Redis directly;
// stores and limiters arrive pre-bound. This keeps rotation and authentication
// decision logic testable without an engine.
//
// # What this package must NOT do
//
//   - Emit audit events or increment metrics.
//   - Construct sentinel errors exposed to callers.
//   - Read configuration.
package flows
