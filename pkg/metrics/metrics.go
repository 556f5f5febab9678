package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcome label values.
const (
	OutcomeAccepted = "accepted"
	OutcomeEvicted  = "evicted"
	OutcomeRejected = "rejected"
)

// Registry holds all metric instances for msgthrottle components.
// A nil *Registry is valid and records nothing.
type Registry struct {
	// Throttler Metrics
	ThrottleSubmissions *prometheus.CounterVec
	ThrottleEvictions   *prometheus.CounterVec
	ThrottleKeys        *prometheus.GaugeVec

	// Janitor Metrics
	JanitorRuns   *prometheus.CounterVec
	JanitorPruned *prometheus.CounterVec

	// Dispatcher Metrics
	DispatchQueued *prometheus.GaugeVec
	DispatchPanics *prometheus.CounterVec
}

// New creates a Registry from config. It returns nil when metrics are
// disabled, which turns every recording method into a no-op.
func New(config Config) *Registry {
	if !config.Enabled {
		return nil
	}
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	namespace := config.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	factory := promauto.With(reg)

	return &Registry{
		ThrottleSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "throttle",
				Name:        "submissions_total",
				Help:        "Total number of submitted messages by outcome",
				ConstLabels: config.Labels,
			},
			[]string{"throttler", "outcome"},
		),

		ThrottleEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "throttle",
				Name:        "evictions_total",
				Help:        "Total number of aged-out history entries evicted",
				ConstLabels: config.Labels,
			},
			[]string{"throttler"},
		),

		ThrottleKeys: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "throttle",
				Name:        "keys",
				Help:        "Number of keys with a history buffer",
				ConstLabels: config.Labels,
			},
			[]string{"throttler"},
		),

		JanitorRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "janitor",
				Name:        "runs_total",
				Help:        "Total number of prune runs",
				ConstLabels: config.Labels,
			},
			[]string{"janitor"},
		),

		JanitorPruned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "janitor",
				Name:        "pruned_total",
				Help:        "Total number of keys removed by prune runs",
				ConstLabels: config.Labels,
			},
			[]string{"janitor"},
		),

		DispatchQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "dispatch",
				Name:        "queued",
				Help:        "Number of submissions waiting in worker queues",
				ConstLabels: config.Labels,
			},
			[]string{"dispatcher"},
		),

		DispatchPanics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "dispatch",
				Name:        "panics_total",
				Help:        "Total number of recovered callback panics",
				ConstLabels: config.Labels,
			},
			[]string{"dispatcher"},
		),
	}
}

// NewRegistry creates an enabled Registry on the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return New(Config{Enabled: true, Registry: reg})
}

// ObserveSubmission counts one submission with the given outcome label.
func (r *Registry) ObserveSubmission(throttler, outcome string) {
	if r == nil {
		return
	}
	r.ThrottleSubmissions.WithLabelValues(throttler, outcome).Inc()
	if outcome == OutcomeEvicted {
		r.ThrottleEvictions.WithLabelValues(throttler).Inc()
	}
}

// SetKeys records the number of tracked keys.
func (r *Registry) SetKeys(throttler string, n int) {
	if r == nil {
		return
	}
	r.ThrottleKeys.WithLabelValues(throttler).Set(float64(n))
}

// ObservePrune counts one prune run that removed n keys.
func (r *Registry) ObservePrune(janitor string, n int) {
	if r == nil {
		return
	}
	r.JanitorRuns.WithLabelValues(janitor).Inc()
	r.JanitorPruned.WithLabelValues(janitor).Add(float64(n))
}

// SetQueued records the number of queued dispatcher submissions.
func (r *Registry) SetQueued(dispatcher string, n int) {
	if r == nil {
		return
	}
	r.DispatchQueued.WithLabelValues(dispatcher).Set(float64(n))
}

// IncPanics counts one recovered dispatcher panic.
func (r *Registry) IncPanics(dispatcher string) {
	if r == nil {
		return
	}
	r.DispatchPanics.WithLabelValues(dispatcher).Inc()
}
