// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the SDK.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Deferred check metrics
	IncDeferredCheck(outcome string) // outcome: "network", "cache_hit", "repeat_no_match", "skipped_simulator"
	IncUniversalLink()

	// Transport metrics
	IncRequestAttempt(endpoint string)
	IncRetry(endpoint string)
	ObserveRequestDuration(endpoint string, duration time.Duration)

	// Attribution outcomes
	IncMatch(matched bool)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
