package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	DeferredChecks        map[string]uint64
	UniversalLinks        uint64
	RequestAttempts       map[string]uint64
	Retries               map[string]uint64
	RequestDurationCount  uint64
	RequestDurationTotal  time.Duration
	Matches               uint64
	NoMatches             uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                   sync.Mutex
	deferredChecks       map[string]uint64
	universalLinks       uint64
	requestAttempts      map[string]uint64
	retries              map[string]uint64
	requestDurationCount uint64
	requestDurationTotal time.Duration
	matches              uint64
	noMatches            uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		deferredChecks:  make(map[string]uint64),
		requestAttempts: make(map[string]uint64),
		retries:         make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		DeferredChecks:       make(map[string]uint64, len(m.deferredChecks)),
		UniversalLinks:       m.universalLinks,
		RequestAttempts:      make(map[string]uint64, len(m.requestAttempts)),
		Retries:              make(map[string]uint64, len(m.retries)),
		RequestDurationCount: m.requestDurationCount,
		RequestDurationTotal: m.requestDurationTotal,
		Matches:              m.matches,
		NoMatches:            m.noMatches,
	}
	for k, v := range m.deferredChecks {
		snap.DeferredChecks[k] = v
	}
	for k, v := range m.requestAttempts {
		snap.RequestAttempts[k] = v
	}
	for k, v := range m.retries {
		snap.Retries[k] = v
	}
	return snap
}

// IncDeferredCheck increments the counter for a deferred-check outcome.
func (m *InMemoryRecorder) IncDeferredCheck(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deferredChecks[outcome]++
}

// IncUniversalLink increments the universal-link counter.
func (m *InMemoryRecorder) IncUniversalLink() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.universalLinks++
}

// IncRequestAttempt increments the attempt counter for an endpoint.
func (m *InMemoryRecorder) IncRequestAttempt(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestAttempts[endpoint]++
}

// IncRetry increments the retry counter for an endpoint.
func (m *InMemoryRecorder) IncRetry(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries[endpoint]++
}

// ObserveRequestDuration records a completed request duration.
func (m *InMemoryRecorder) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestDurationCount++
	m.requestDurationTotal += duration
}

// IncMatch increments the match or no-match counter.
func (m *InMemoryRecorder) IncMatch(matched bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if matched {
		m.matches++
	} else {
		m.noMatches++
	}
}
