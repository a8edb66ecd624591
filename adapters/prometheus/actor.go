package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joakim-brannstrom/my/core/actor"
	"github.com/joakim-brannstrom/my/core/metrics"
)

// actorMetrics implements actor.Metrics using Prometheus.
type actorMetrics struct {
	spawnedTotal      prometheus.Counter
	stoppedTotal      *prometheus.CounterVec
	messagesTotal     prometheus.Counter
	processDuration   prometheus.Histogram
	panicsTotal       prometheus.Counter
	requestTimeouts   prometheus.Counter
	queueWaiting      prometheus.Gauge
	queueInactive     prometheus.Gauge
	pollIntervalGauge prometheus.Gauge
}

// NewActorMetrics creates a new Prometheus implementation of actor.Metrics.
func NewActorMetrics(reg prometheus.Registerer) actor.Metrics {
	m := &actorMetrics{
		spawnedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "my_actor_spawned_total",
			Help: "Total number of actors spawned",
		}),

		stoppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "my_actor_stopped_total",
			Help: "Total number of actors stopped",
		}, []string{"reason"}),

		messagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "my_actor_messages_total",
			Help: "Total number of messages processed",
		}),

		processDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "my_actor_process_duration_seconds",
			Help:    "Duration of one scheduler visit to an actor in seconds",
			Buckets: defaultBuckets,
		}),

		panicsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "my_actor_handler_panics_total",
			Help: "Total number of handler panics contained",
		}),

		requestTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "my_actor_request_timeouts_total",
			Help: "Total number of requests that hit their deadline",
		}),

		queueWaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "my_scheduler_waiting_actors",
			Help: "Actors queued for a worker",
		}),

		queueInactive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "my_scheduler_inactive_actors",
			Help: "Actors parked on the watcher's inactive queue",
		}),

		pollIntervalGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "my_scheduler_poll_interval_seconds",
			Help: "Current adaptive poll interval of the watcher",
		}),
	}

	reg.MustRegister(
		m.spawnedTotal,
		m.stoppedTotal,
		m.messagesTotal,
		m.processDuration,
		m.panicsTotal,
		m.requestTimeouts,
		m.queueWaiting,
		m.queueInactive,
		m.pollIntervalGauge,
	)

	return m
}

func (m *actorMetrics) ActorSpawned() {
	m.spawnedTotal.Inc()
}

func (m *actorMetrics) ActorStopped(reason string) {
	m.stoppedTotal.WithLabelValues(reason).Inc()
}

func (m *actorMetrics) MessagesProcessed(n int) {
	m.messagesTotal.Add(float64(n))
}

func (m *actorMetrics) ProcessDuration() metrics.Timer {
	return newTimer(m.processDuration)
}

func (m *actorMetrics) HandlerPanic() {
	m.panicsTotal.Inc()
}

func (m *actorMetrics) RequestTimeout() {
	m.requestTimeouts.Inc()
}

func (m *actorMetrics) QueueDepth(waiting, inactive int) {
	m.queueWaiting.Set(float64(waiting))
	m.queueInactive.Set(float64(inactive))
}

func (m *actorMetrics) PollInterval(d time.Duration) {
	m.pollIntervalGauge.Set(d.Seconds())
}

var _ actor.Metrics = (*actorMetrics)(nil)
