package throttle

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/msgthrottle/internal/keyhash"
	"github.com/vnykmshr/msgthrottle/pkg/common/errors"
	"github.com/vnykmshr/msgthrottle/pkg/common/validation"
	"github.com/vnykmshr/msgthrottle/pkg/metrics"
	"github.com/vnykmshr/msgthrottle/pkg/ringbuffer"
)

// DefaultShards is the number of key map partitions used when Config.Shards is zero.
const DefaultShards = 16

// Outcome is the result of a single submission.
type Outcome int

const (
	// Accepted means the message was recorded in a key history that had room.
	Accepted Outcome = iota + 1

	// Evicted means the key history was full, its oldest entry had aged out
	// and was dropped, and the message was recorded in its place.
	Evicted

	// Rejected means the key history was full with a still-valid oldest
	// entry. The message was not recorded.
	Rejected
)

// IsAccepted reports whether the message reached the accept callback.
func (o Outcome) IsAccepted() bool {
	return o == Accepted || o == Evicted
}

// Err returns errors.ErrThrottled for Rejected and nil otherwise.
func (o Outcome) Err() error {
	if o == Rejected {
		return errors.ErrThrottled
	}
	return nil
}

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return metrics.OutcomeAccepted
	case Evicted:
		return metrics.OutcomeEvicted
	case Rejected:
		return metrics.OutcomeRejected
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Config holds configuration options for creating a new Throttler.
type Config[M any, T any] struct {
	// Capacity is the number of accepted messages remembered per key.
	Capacity int

	// Accept receives every accepted message. Required.
	Accept func(M)

	// Reject receives every rejected message. If nil, rejections are dropped.
	Reject func(M)

	// Predicate decides whether the oldest entry of a full history is still
	// valid. If nil, AlwaysValid is used and saturated keys stay throttled.
	Predicate Predicate[T]

	// Clock stamps submissions. If nil, time.Now is used for time.Time
	// timestamps and monotonic elapsed time for time.Duration timestamps;
	// any other timestamp type requires a Clock.
	Clock Timestamper[T]

	// Shards is the number of key map partitions. If zero, DefaultShards is used.
	Shards int

	// Name labels log entries and metrics.
	Name string

	// Logger receives key lifecycle logs. If nil, logging is disabled.
	Logger *zap.Logger

	// Metrics records submission outcomes. If nil, metrics are disabled.
	Metrics *metrics.Registry
}

// Stats is a snapshot of throttler counters.
type Stats struct {
	Accepted uint64 // includes Evicted
	Evicted  uint64
	Rejected uint64
	Keys     int
}

type entry[M any, T any] struct {
	message M
	at      T
}

// history is the per-key state. mu serializes submissions for the key.
type history[M any, T any] struct {
	mu        sync.Mutex
	buf       *ringbuffer.Buffer[entry[M, T]]
	throttled bool // last submission was rejected
	removed   bool // detached from the key map by Remove or Prune
}

type shard[K comparable, M any, T any] struct {
	mu   sync.RWMutex
	keys map[K]*history[M, T]
}

// Throttler routes keyed messages through per-key history buffers and hands
// each one to either the accept or the reject callback.
//
// Submissions for one key are serialized; different keys proceed in
// parallel. Callbacks run while the key is locked. They may submit to other
// keys but must not submit to or remove their own key.
type Throttler[K comparable, M any, T any] struct {
	capacity  int
	accept    func(M)
	reject    func(M)
	predicate Predicate[T]
	now       Timestamper[T]
	name      string
	logger    *zap.Logger
	metrics   *metrics.Registry

	part   keyhash.Partitioner[K]
	shards []*shard[K, M, T]

	keys     atomic.Int64
	accepted atomic.Uint64
	evicted  atomic.Uint64
	rejected atomic.Uint64
}

// New creates a throttler stamping messages with time.Now, remembering
// capacity accepted messages per key and rejecting forever once a key's
// history is full. It panics on invalid parameters.
func New[K comparable, M any](capacity int, accept, reject func(M)) *Throttler[K, M, time.Time] {
	t, err := NewSafe[K](capacity, accept, reject)
	if err != nil {
		panic(err)
	}
	return t
}

// NewSafe is like New but returns an error instead of panicking.
func NewSafe[K comparable, M any](capacity int, accept, reject func(M)) (*Throttler[K, M, time.Time], error) {
	return NewWithConfigSafe[K](Config[M, time.Time]{
		Capacity: capacity,
		Accept:   accept,
		Reject:   reject,
	})
}

// NewWithConfig creates a throttler from config. It panics on an invalid config.
func NewWithConfig[K comparable, M any, T any](config Config[M, T]) *Throttler[K, M, T] {
	t, err := NewWithConfigSafe[K](config)
	if err != nil {
		panic(err)
	}
	return t
}

// NewWithConfigSafe creates a throttler from config with validation that
// returns an error instead of panicking.
func NewWithConfigSafe[K comparable, M any, T any](config Config[M, T]) (*Throttler[K, M, T], error) {
	if err := validation.ValidatePositive("throttle", "capacity", config.Capacity); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("throttle", "accept", config.Accept); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("throttle", "shards", config.Shards); err != nil {
		return nil, err
	}

	now := config.Clock
	if now == nil {
		var ok bool
		if now, ok = defaultTimestamper[T](); !ok {
			var zero T
			return nil, errors.NewValidationError("throttle", "clock", nil, fmt.Sprintf("no default clock for %T timestamps", zero)).
				WithHint("set Config.Clock or use time.Time or time.Duration timestamps")
		}
	}
	if config.Reject == nil {
		config.Reject = func(M) {}
	}
	if config.Predicate == nil {
		config.Predicate = AlwaysValid[T]()
	}
	if config.Shards == 0 {
		config.Shards = DefaultShards
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	t := &Throttler[K, M, T]{
		capacity:  config.Capacity,
		accept:    config.Accept,
		reject:    config.Reject,
		predicate: config.Predicate,
		now:       now,
		name:      config.Name,
		logger:    config.Logger.With(zap.String("throttler", config.Name)),
		metrics:   config.Metrics,
		part:      keyhash.New[K](config.Shards),
		shards:    make([]*shard[K, M, T], config.Shards),
	}
	for i := range t.shards {
		t.shards[i] = &shard[K, M, T]{keys: make(map[K]*history[M, T])}
	}
	return t, nil
}

// Submit decides the fate of message for key, invokes exactly one of the
// accept and reject callbacks, and returns the outcome.
func (t *Throttler[K, M, T]) Submit(key K, message M) Outcome {
	h := t.acquire(key)
	defer h.mu.Unlock()

	now := t.now()

	if h.buf.Full() {
		oldest := h.buf.Front()
		if t.predicate(now, oldest.at) {
			return t.rejectLocked(h, key, message)
		}
		h.buf.Pop()
		h.buf.Push(entry[M, T]{message: message, at: now})
		return t.acceptLocked(h, message, Evicted)
	}

	h.buf.Push(entry[M, T]{message: message, at: now})
	return t.acceptLocked(h, message, Accepted)
}

// From returns a handle bound to key.
func (t *Throttler[K, M, T]) From(key K) *Sender[K, M, T] {
	return &Sender[K, M, T]{throttler: t, key: key}
}

// Remove drops the history of key. It reports whether the key was tracked.
// It waits for an in-flight submission to key, so a callback must not
// remove its own key.
func (t *Throttler[K, M, T]) Remove(key K) bool {
	s := t.shardFor(key)
	s.mu.RLock()
	h, ok := s.keys[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	// The shard lock is never held while waiting on a key; callbacks run
	// under the key lock and may reach other keys of the shard.
	h.mu.Lock()
	detached := !h.removed
	h.removed = true
	h.mu.Unlock()

	s.detach(key, h)
	if detached {
		t.metrics.SetKeys(t.name, int(t.keys.Add(-1)))
	}
	return detached
}

// Prune drops every key whose newest recorded entry is no longer valid and
// returns the number of keys removed. It reads the clock once. Keys with a
// submission in flight are skipped and left for the next run.
//
// For a predicate that is monotone in the old timestamp (an entry never
// becomes valid again once it has aged out, as with the built-in
// predicates) a pruned key behaves exactly like one that was never seen, so
// pruning only reclaims memory. With the AlwaysValid predicate nothing is
// pruned.
func (t *Throttler[K, M, T]) Prune() int {
	now := t.now()
	removed := 0

	for _, s := range t.shards {
		s.mu.Lock()
		for key, h := range s.keys {
			if !h.mu.TryLock() {
				continue
			}
			if h.buf.Empty() || !t.predicate(now, h.buf.Back().at) {
				h.removed = true
				delete(s.keys, key)
				removed++
			}
			h.mu.Unlock()
		}
		s.mu.Unlock()
	}

	if removed > 0 {
		t.metrics.SetKeys(t.name, int(t.keys.Add(int64(-removed))))
	}
	return removed
}

// Keys returns the number of keys with a history.
func (t *Throttler[K, M, T]) Keys() int {
	return int(t.keys.Load())
}

// Len returns the number of messages recorded in the history of key.
func (t *Throttler[K, M, T]) Len(key K) int {
	s := t.shardFor(key)
	s.mu.RLock()
	h, ok := s.keys[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.Len()
}

// Capacity returns the per-key history capacity.
func (t *Throttler[K, M, T]) Capacity() int {
	return t.capacity
}

// Stats returns a snapshot of the throttler counters.
func (t *Throttler[K, M, T]) Stats() Stats {
	return Stats{
		Accepted: t.accepted.Load(),
		Evicted:  t.evicted.Load(),
		Rejected: t.rejected.Load(),
		Keys:     t.Keys(),
	}
}

func (t *Throttler[K, M, T]) acceptLocked(h *history[M, T], message M, outcome Outcome) Outcome {
	h.throttled = false
	t.accepted.Add(1)
	if outcome == Evicted {
		t.evicted.Add(1)
	}
	t.metrics.ObserveSubmission(t.name, outcome.String())

	t.accept(message)
	return outcome
}

func (t *Throttler[K, M, T]) rejectLocked(h *history[M, T], key K, message M) Outcome {
	if !h.throttled {
		h.throttled = true
		t.logger.Info("key throttled", zap.Any("key", key), zap.Int("capacity", t.capacity))
	}
	t.rejected.Add(1)
	t.metrics.ObserveSubmission(t.name, metrics.OutcomeRejected)

	t.reject(message)
	return Rejected
}

// acquire returns the locked, attached history of key, creating it if needed.
func (t *Throttler[K, M, T]) acquire(key K) *history[M, T] {
	for {
		h := t.lookup(key)
		h.mu.Lock()
		if !h.removed {
			return h
		}
		// Removed between lookup and lock; look again.
		h.mu.Unlock()
		t.shardFor(key).detach(key, h)
	}
}

func (t *Throttler[K, M, T]) lookup(key K) *history[M, T] {
	s := t.shardFor(key)

	s.mu.RLock()
	h, ok := s.keys[key]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.keys[key]; ok {
		return h
	}
	h = &history[M, T]{buf: ringbuffer.MustNew[entry[M, T]](t.capacity)}
	s.keys[key] = h

	t.metrics.SetKeys(t.name, int(t.keys.Add(1)))
	t.logger.Debug("tracking new key", zap.Any("key", key))
	return h
}

func (t *Throttler[K, M, T]) shardFor(key K) *shard[K, M, T] {
	return t.shards[t.part.Index(key)]
}

// detach deletes key from the shard if it still maps to h.
func (s *shard[K, M, T]) detach(key K, h *history[M, T]) {
	s.mu.Lock()
	if s.keys[key] == h {
		delete(s.keys, key)
	}
	s.mu.Unlock()
}

// Sender is a handle bound to one key. It carries no state of its own, so
// chained calls behave exactly like separate Submit calls.
type Sender[K comparable, M any, T any] struct {
	throttler *Throttler[K, M, T]
	key       K
}

// Send submits message for the bound key and returns the handle for chaining.
func (s *Sender[K, M, T]) Send(message M) *Sender[K, M, T] {
	s.throttler.Submit(s.key, message)
	return s
}

// Submit submits message for the bound key and returns the outcome.
func (s *Sender[K, M, T]) Submit(message M) Outcome {
	return s.throttler.Submit(s.key, message)
}

// Key returns the bound key.
func (s *Sender[K, M, T]) Key() K {
	return s.key
}
