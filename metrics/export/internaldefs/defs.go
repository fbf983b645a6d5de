package internaldefs

import (
	devcred "github.com/MrEthical07/devcred"
)

// CounterDef defines a public type used by devcred APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   devcred.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by devcred APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   devcred.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the credential engine.
var CounterDefs = []CounterDef{
	{ID: devcred.MetricIssueSuccess, Name: "devcred_issue_success_total", Help: "Issued credential families."},
	{ID: devcred.MetricIssueSuperseded, Name: "devcred_issue_superseded_total", Help: "Active families revoked by a re-issue on the same device."},
	{ID: devcred.MetricRotateSuccess, Name: "devcred_rotate_success_total", Help: "Successful credential rotations."},
	{ID: devcred.MetricRotateConflict, Name: "devcred_rotate_conflict_total", Help: "Rotations lost inside the grace window."},
	{ID: devcred.MetricRotateFailure, Name: "devcred_rotate_failure_total", Help: "Failed rotation attempts."},
	{ID: devcred.MetricRotateRateLimited, Name: "devcred_rotate_rate_limited_total", Help: "Rate-limited rotation attempts."},
	{ID: devcred.MetricAuthenticateSuccess, Name: "devcred_authenticate_success_total", Help: "Successful authentications."},
	{ID: devcred.MetricAuthenticateStale, Name: "devcred_authenticate_stale_total", Help: "Authentications accepted through the grace slot."},
	{ID: devcred.MetricAuthenticateFailure, Name: "devcred_authenticate_failure_total", Help: "Failed authentications."},
	{ID: devcred.MetricAuthenticateRateLimited, Name: "devcred_authenticate_rate_limited_total", Help: "Authentications blocked by the failure throttle."},
	{ID: devcred.MetricReplayDetected, Name: "devcred_replay_detected_total", Help: "Detected credential replays."},
	{ID: devcred.MetricReplayEscalationFailed, Name: "devcred_replay_escalation_failed_total", Help: "Replays whose compromise write failed."},
	{ID: devcred.MetricFamilyRevoked, Name: "devcred_family_revoked_total", Help: "Families transitioned to revoked."},
	{ID: devcred.MetricFamilyCompromised, Name: "devcred_family_compromised_total", Help: "Families transitioned to compromised."},
	{ID: devcred.MetricCleanupExpiredScrubbed, Name: "devcred_cleanup_expired_scrubbed_total", Help: "Expired records scrubbed by cleanup."},
	{ID: devcred.MetricCleanupCompromisedScrubbed, Name: "devcred_cleanup_compromised_scrubbed_total", Help: "Compromised records scrubbed by cleanup."},
}

// HistogramDefs is an exported constant or variable used by the credential engine.
var HistogramDefs = []HistogramDef{
	{ID: devcred.MetricAuthenticateLatency, Name: "devcred_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the credential engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the credential engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
