package metrics

import "time"

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

// NewNoop returns a Recorder that does nothing.
func NewNoop() *NoopRecorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncDeferredCheck(string)                       {}
func (n *NoopRecorder) IncUniversalLink()                             {}
func (n *NoopRecorder) IncRequestAttempt(string)                      {}
func (n *NoopRecorder) IncRetry(string)                               {}
func (n *NoopRecorder) ObserveRequestDuration(string, time.Duration)  {}
func (n *NoopRecorder) IncMatch(bool)                                 {}
