package actor

import (
	"time"

	"github.com/joakim-brannstrom/my/core/metrics"
)

// Metrics defines the instrumentation hooks for the runtime. All methods
// must be thread-safe.
type Metrics interface {
	// Lifecycle
	ActorSpawned()
	ActorStopped(reason string)

	// Processing
	MessagesProcessed(n int)
	ProcessDuration() metrics.Timer
	HandlerPanic()
	RequestTimeout()

	// Scheduler
	QueueDepth(waiting, inactive int)
	PollInterval(d time.Duration)
}

// nopMetrics is a no-op implementation of Metrics.
type nopMetrics struct{}

func (nopMetrics) ActorSpawned()                  {}
func (nopMetrics) ActorStopped(string)            {}
func (nopMetrics) MessagesProcessed(int)          {}
func (nopMetrics) ProcessDuration() metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) HandlerPanic()                  {}
func (nopMetrics) RequestTimeout()                {}
func (nopMetrics) QueueDepth(int, int)            {}
func (nopMetrics) PollInterval(time.Duration)     {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
