/*
Package throttle provides a per-key message throttler built on fixed-capacity
history buffers.

Every key (a sender, a tenant, a connection) owns a ring buffer remembering
its most recently accepted messages and when they were accepted. A
submission is accepted while the buffer has room. Once it is full, the
oldest entry decides: if it is still valid under the staleness predicate the
new message is rejected and nothing is recorded; if it has aged out it is
evicted and the new message takes its place.

Basic usage:

	th := throttle.New[string](4, deliver, drop) // 4 messages per key, fail-closed

	th.From("alice").
		Send("hi").
		Send("how are you")

Sliding window of 4 messages per second per key:

	th := throttle.NewWithConfig[string](throttle.Config[string, time.Time]{
		Capacity:  4,
		Accept:    deliver,
		Reject:    drop,
		Predicate: throttle.WithinDuration(time.Second),
	})

Time Sources:

Timestamps are opaque to the throttler; only the predicate compares them.
time.Time timestamps default to time.Now and time.Duration timestamps to the
monotonic time elapsed since construction. Any other type, such as a logical
counter, needs an explicit Config.Clock:

	var tick uint64
	th := throttle.NewWithConfig[int](throttle.Config[string, uint64]{
		Capacity:  8,
		Accept:    deliver,
		Clock:     func() uint64 { tick++; return tick },
		Predicate: throttle.WithinSpan[uint64](100),
	})

The clock is read exactly once per submission.

Defaults:

Without a predicate the throttler is fail-closed: a key whose buffer filled
up stays throttled for the lifetime of the throttler (or until Remove).
Keys are created on first use and are never dropped implicitly. Prune, and a
Janitor running it on a cron schedule, drop keys whose newest entry has aged
out; such keys are indistinguishable from new ones.

Thread Safety:

All Throttler methods are safe for concurrent use. Submissions for the same
key are serialized and their callbacks run under that key's lock, so a
callback must not submit to its own key. Different keys are partitioned
across shards and do not contend.
*/
package throttle
