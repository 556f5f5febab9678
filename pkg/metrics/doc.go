// Package metrics provides Prometheus instrumentation for msgthrottle components.
//
// A Registry is created once per Prometheus registerer and handed to the
// throttler, janitor and dispatcher through their Config:
//
//	reg := metrics.New(metrics.Config{
//		Enabled:  true,
//		Registry: prometheus.NewRegistry(),
//	})
//
//	th, err := throttle.NewWithConfigSafe[string, string, time.Time](throttle.Config[string, time.Time]{
//		Capacity: 4,
//		Accept:   deliver,
//		Name:     "chat",
//		Metrics:  reg,
//	})
//
// A nil *Registry is valid; every recording method is then a no-op, which is
// what metrics.New returns when Config.Enabled is false.
//
// # Available Metrics
//
//   - msgthrottle_throttle_submissions_total{throttler,outcome}: submissions by
//     outcome ("accepted", "evicted", "rejected")
//   - msgthrottle_throttle_evictions_total{throttler}: aged-out entries evicted
//   - msgthrottle_throttle_keys{throttler}: keys with a history buffer
//   - msgthrottle_janitor_runs_total{janitor}: prune runs
//   - msgthrottle_janitor_pruned_total{janitor}: keys removed by prune runs
//   - msgthrottle_dispatch_queued{dispatcher}: submissions waiting in queues
//   - msgthrottle_dispatch_panics_total{dispatcher}: recovered callback panics
//
// Expose them the usual way:
//
//	http.Handle("/metrics", promhttp.Handler())
package metrics
