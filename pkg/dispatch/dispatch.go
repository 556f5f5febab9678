package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/msgthrottle/internal/keyhash"
	"github.com/vnykmshr/msgthrottle/pkg/common/errors"
	"github.com/vnykmshr/msgthrottle/pkg/common/validation"
	"github.com/vnykmshr/msgthrottle/pkg/metrics"
	"github.com/vnykmshr/msgthrottle/pkg/throttle"
)

// DefaultQueueSize is the per-worker queue length used when Config.QueueSize is zero.
const DefaultQueueSize = 128

// Submitter decides the fate of keyed messages. *throttle.Throttler satisfies it.
type Submitter[K comparable, M any] interface {
	Submit(key K, message M) throttle.Outcome
}

// Config holds configuration options for creating a Dispatcher.
type Config struct {
	// Workers is the number of worker goroutines. If zero, GOMAXPROCS is used.
	Workers int

	// QueueSize is the queue length of each worker. If zero, DefaultQueueSize is used.
	QueueSize int

	// Name labels log entries and metrics.
	Name string

	// Logger receives recovered panics. If nil, logging is disabled.
	Logger *zap.Logger

	// Metrics records queue depth and recovered panics. If nil, metrics are disabled.
	Metrics *metrics.Registry
}

type submission[K comparable, M any] struct {
	key     K
	message M
}

// Dispatcher feeds a Submitter from a fixed set of worker goroutines. Every
// key is bound to one worker, so submissions for a key reach the Submitter
// in the order they were queued while different keys run in parallel.
type Dispatcher[K comparable, M any] struct {
	target  Submitter[K, M]
	name    string
	logger  *zap.Logger
	metrics *metrics.Registry

	part   keyhash.Partitioner[K]
	queues []chan submission[K, M]

	mu           sync.RWMutex
	closed       bool
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
	workerWg     sync.WaitGroup

	pending atomic.Int64
	panics  atomic.Uint64
}

// New creates a Dispatcher for target and starts its workers.
func New[K comparable, M any](target Submitter[K, M], config Config) (*Dispatcher[K, M], error) {
	if err := validation.ValidateNotNil("dispatch", "target", target); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("dispatch", "workers", config.Workers); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("dispatch", "queue_size", config.QueueSize); err != nil {
		return nil, err
	}

	if config.Workers == 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.QueueSize == 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	d := &Dispatcher[K, M]{
		target:     target,
		name:       config.Name,
		logger:     config.Logger.With(zap.String("dispatcher", config.Name)),
		metrics:    config.Metrics,
		part:       keyhash.New[K](config.Workers),
		queues:     make([]chan submission[K, M], config.Workers),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}

	for i := range d.queues {
		d.queues[i] = make(chan submission[K, M], config.QueueSize)
		d.workerWg.Add(1)
		go d.run(i)
	}

	return d, nil
}

// Submit queues message for key, blocking while the worker queue is full.
// Failures are *errors.OperationError values wrapping errors.ErrClosed after
// Shutdown or the context error when ctx is done first.
func (d *Dispatcher[K, M]) Submit(ctx context.Context, key K, message M) error {
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errors.NewOperationError("dispatch", "Submit", errors.ErrClosed)
	}

	// Check if context is already canceled before attempting to queue
	select {
	case <-ctx.Done():
		return errors.NewOperationError("dispatch", "Submit", ctx.Err()).WithContext("before queueing")
	default:
	}

	// Workers decrement on receive, so count before the send.
	id := d.part.Index(key)
	d.queued(1)
	select {
	case d.queues[id] <- submission[K, M]{key: key, message: message}:
		return nil
	case <-d.shutdownCh:
		d.queued(-1)
		return errors.NewOperationError("dispatch", "Submit", errors.ErrClosed).
			WithContext("shut down while waiting for a queue slot")
	case <-ctx.Done():
		d.queued(-1)
		return errors.NewOperationError("dispatch", "Submit", ctx.Err()).
			WithContext(fmt.Sprintf("worker %d queue full", id))
	}
}

// SubmitWithTimeout is like Submit but gives up with errors.ErrTimeout when
// the message could not be queued within timeout.
func (d *Dispatcher[K, M]) SubmitWithTimeout(key K, message M, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := d.Submit(ctx, key, message)
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.NewOperationError("dispatch", "SubmitWithTimeout", errors.ErrTimeout).
			WithContext(fmt.Sprintf("not queued within %v", timeout))
	}
	return err
}

// TrySubmit queues message for key without blocking. It fails with
// errors.ErrCapacityExceeded when the worker queue is full.
func (d *Dispatcher[K, M]) TrySubmit(key K, message M) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errors.NewOperationError("dispatch", "TrySubmit", errors.ErrClosed)
	}

	id := d.part.Index(key)
	d.queued(1)
	select {
	case d.queues[id] <- submission[K, M]{key: key, message: message}:
		return nil
	default:
		d.queued(-1)
		return errors.NewOperationError("dispatch", "TrySubmit", errors.ErrCapacityExceeded).
			WithContext(fmt.Sprintf("worker %d queue of %d is full", id, cap(d.queues[id])))
	}
}

// Shutdown stops accepting submissions, lets the workers drain every queued
// message, and returns a channel that is closed once they have exited.
// Blocked Submit calls fail with errors.ErrClosed.
func (d *Dispatcher[K, M]) Shutdown() <-chan struct{} {
	d.shutdownOnce.Do(func() {
		// Wake blocked senders so they release the read lock.
		close(d.shutdownCh)

		d.mu.Lock()
		d.closed = true
		for _, q := range d.queues {
			close(q)
		}
		d.mu.Unlock()

		go func() {
			d.workerWg.Wait()
			d.logger.Debug("dispatcher stopped", zap.Uint64("panics", d.panics.Load()))
			close(d.done)
		}()
	})

	return d.done
}

// Pending returns the number of queued submissions not yet handed to the target.
func (d *Dispatcher[K, M]) Pending() int {
	return int(d.pending.Load())
}

// Workers returns the number of worker goroutines.
func (d *Dispatcher[K, M]) Workers() int {
	return d.part.Len()
}

// Panics returns the number of recovered callback panics.
func (d *Dispatcher[K, M]) Panics() uint64 {
	return d.panics.Load()
}

func (d *Dispatcher[K, M]) queued(delta int64) {
	d.metrics.SetQueued(d.name, int(d.pending.Add(delta)))
}

// run is the main loop for worker id. It exits once its queue is closed and drained.
func (d *Dispatcher[K, M]) run(id int) {
	defer d.workerWg.Done()

	for s := range d.queues[id] {
		d.queued(-1)
		d.deliver(id, s)
	}
}

// deliver hands one submission to the target, recovering a panicking callback.
func (d *Dispatcher[K, M]) deliver(id int, s submission[K, M]) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Add(1)
			d.metrics.IncPanics(d.name)
			d.logger.Error("submission panicked",
				zap.Int("worker", id),
				zap.Any("key", s.key),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	d.target.Submit(s.key, s.message)
}
