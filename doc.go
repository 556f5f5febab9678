/*
Package msgthrottle provides per-key message throttling for Go applications.

Each key (a user, a connection, a tenant) gets a fixed-capacity history of
the messages it recently got through. While the history has room every
message is accepted; once it is full a new message is accepted only if the
oldest recorded one has aged out according to a staleness predicate.

Throttling (pkg/throttle):
  - Throttler: per-key accept or reject decisions with pluggable clock and predicate
  - Janitor: cron-scheduled pruning of idle keys

Supporting packages:
  - ringbuffer: generic fixed-capacity FIFO
  - dispatch: key-affine worker goroutines in front of a throttler
  - metrics: Prometheus instrumentation

Example usage:

	import (
		"github.com/vnykmshr/msgthrottle/pkg/dispatch"
		"github.com/vnykmshr/msgthrottle/pkg/throttle"
	)

	th := throttle.NewWithConfig[string](throttle.Config[Message, time.Time]{
		Capacity:  10,
		Accept:    deliver,
		Reject:    drop,
		Predicate: throttle.WithinDuration(time.Second),
	})

	th.From(msg.User).Send(msg)
*/
package msgthrottle
