package throttle

import "time"

// Timestamper returns the timestamp recorded for a submission. It is called
// exactly once per Submit, and once per Prune run.
type Timestamper[T any] func() T

// Predicate reports whether the history entry recorded at old is still valid
// at now. A valid oldest entry keeps a saturated key throttled; an invalid
// one is evicted to make room for the new message.
type Predicate[T any] func(now, old T) bool

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time, including its monotonic reading.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ClockSource adapts a Clock into a Timestamper.
func ClockSource(c Clock) Timestamper[time.Time] {
	return c.Now
}

// ElapsedSource returns a Timestamper reporting the monotonic time elapsed
// since the call to ElapsedSource.
func ElapsedSource() Timestamper[time.Duration] {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// AlwaysValid never lets history age out. Once a key's buffer is full every
// further submission for it is rejected.
func AlwaysValid[T any]() Predicate[T] {
	return func(T, T) bool { return true }
}

// NeverValid ages history out immediately, so a full buffer evicts its
// oldest entry on every submission and nothing is rejected.
func NeverValid[T any]() Predicate[T] {
	return func(T, T) bool { return false }
}

// WithinDuration keeps an entry valid while less than threshold has elapsed
// between old and now.
func WithinDuration(threshold time.Duration) Predicate[time.Time] {
	return func(now, old time.Time) bool {
		return now.Sub(old) < threshold
	}
}

// WithinElapsed is WithinDuration for elapsed-time timestamps.
func WithinElapsed(threshold time.Duration) Predicate[time.Duration] {
	return func(now, old time.Duration) bool {
		return now-old < threshold
	}
}

// Number is the set of types usable as logical timestamps.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// WithinSpan keeps an entry valid while now-old is less than span. It suits
// counter-based timestamp sources.
func WithinSpan[T Number](span T) Predicate[T] {
	return func(now, old T) bool {
		return now-old < span
	}
}

// defaultTimestamper returns time.Now for time.Time timestamps and the
// monotonic elapsed time for time.Duration timestamps. Other types have no
// default.
func defaultTimestamper[T any]() (Timestamper[T], bool) {
	var zero T
	switch any(zero).(type) {
	case time.Time:
		ts, ok := any(ClockSource(SystemClock{})).(Timestamper[T])
		return ts, ok
	case time.Duration:
		ts, ok := any(ElapsedSource()).(Timestamper[T])
		return ts, ok
	}
	return nil, false
}
