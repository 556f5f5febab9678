package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_basicUsage demonstrates recording throttler outcomes.
func Example_basicUsage() {
	registry := NewRegistry(prometheus.NewRegistry())

	registry.ObserveSubmission("chat", OutcomeAccepted)
	registry.ObserveSubmission("chat", OutcomeAccepted)
	registry.ObserveSubmission("chat", OutcomeEvicted)
	registry.ObserveSubmission("chat", OutcomeRejected)

	fmt.Println("accepted:", testutil.ToFloat64(registry.ThrottleSubmissions.WithLabelValues("chat", OutcomeAccepted)))
	fmt.Println("evictions:", testutil.ToFloat64(registry.ThrottleEvictions.WithLabelValues("chat")))

	// Output:
	// accepted: 2
	// evictions: 1
}

// Example_disabled demonstrates that a disabled registry is a safe no-op.
func Example_disabled() {
	registry := New(Config{Enabled: false})

	registry.ObserveSubmission("chat", OutcomeRejected)
	registry.SetKeys("chat", 3)

	fmt.Println("registry is nil:", registry == nil)

	// Output:
	// registry is nil: true
}

// Example_configuration demonstrates different metrics configurations.
func Example_configuration() {
	defaultConfig := DefaultConfig()
	fmt.Printf("Default enabled: %v\n", defaultConfig.Enabled)
	fmt.Printf("Default namespace: %s\n", defaultConfig.Namespace)

	customConfig := Config{
		Enabled:   false,
		Namespace: "myapp",
	}
	fmt.Printf("Custom enabled: %v\n", customConfig.Enabled)
	fmt.Printf("Custom namespace: %s\n", customConfig.Namespace)

	// Output:
	// Default enabled: true
	// Default namespace: msgthrottle
	// Custom enabled: false
	// Custom namespace: myapp
}
