// Package audit implements the security event model and sink implementations
// for credential lifecycle operations.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, no-op).
//   - [Event] — structured security record with timestamp, type, family,
//     identity, device, generation, IP, and metadata.
//
// # Architecture boundaries
//
// This package owns event shape and sink delivery. It does NOT decide which
// events to emit — that responsibility belongs to the Engine. The async
// dispatcher that buffers events lives at the devcred root.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import devcred or any sibling internal package.
//   - Carry secret values in [Event] fields.
package audit
