package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vnykmshr/msgthrottle/pkg/common/errors"
	"github.com/vnykmshr/msgthrottle/pkg/metrics"
)

// DefaultSchedule is the prune schedule used when JanitorConfig.Schedule is empty.
const DefaultSchedule = "@every 1m"

// Pruner drops state that no longer influences decisions.
// *Throttler satisfies it.
type Pruner interface {
	Prune() int
}

// JanitorConfig holds configuration for a Janitor.
type JanitorConfig struct {
	// Schedule is a cron expression with an optional leading seconds field,
	// or a descriptor. If empty, DefaultSchedule is used.
	// Examples:
	//   "*/30 * * * * *"  - Every 30 seconds
	//   "*/5 * * * *"     - Every 5 minutes
	//   "@every 1m"       - Every minute
	Schedule string

	// Name labels log entries and metrics.
	Name string

	// Logger receives run logs. If nil, logging is disabled.
	Logger *zap.Logger

	// Metrics records prune runs. If nil, metrics are disabled.
	Metrics *metrics.Registry
}

// Janitor periodically prunes a throttler so that keys whose whole history
// has aged out do not accumulate. Overlapping runs are skipped.
type Janitor struct {
	pruner  Pruner
	cron    *cron.Cron
	entry   cron.EntryID
	name    string
	logger  *zap.Logger
	metrics *metrics.Registry
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewJanitor creates a stopped Janitor for p.
func NewJanitor(p Pruner, config JanitorConfig) (*Janitor, error) {
	if p == nil {
		return nil, errors.NewValidationError("janitor", "pruner", nil, "cannot be nil").
			WithHint("pass the throttler to prune")
	}
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}
	if _, err := cronParser.Parse(config.Schedule); err != nil {
		return nil, errors.NewValidationError("janitor", "schedule", config.Schedule, err.Error()).
			WithHint(`use a cron expression or a descriptor such as "@every 1m"`)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	j := &Janitor{
		pruner:  p,
		name:    config.Name,
		logger:  config.Logger.With(zap.String("janitor", config.Name)),
		metrics: config.Metrics,
	}

	cl := cronLogger{j.logger.Sugar()}
	j.cron = cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	id, err := j.cron.AddFunc(config.Schedule, func() { j.RunOnce() })
	if err != nil {
		return nil, fmt.Errorf("schedule prune job: %w", err)
	}
	j.entry = id
	return j, nil
}

// Start begins running prunes on schedule. Starting a running janitor is a no-op.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule. The returned context is done once an in-flight
// prune has finished.
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

// RunOnce prunes immediately and returns the number of keys removed.
func (j *Janitor) RunOnce() int {
	start := time.Now()
	n := j.pruner.Prune()
	j.metrics.ObservePrune(j.name, n)
	j.logger.Debug("pruned idle keys", zap.Int("removed", n), zap.Duration("took", time.Since(start)))
	return n
}

// Next returns the time of the next scheduled prune, or the zero time if
// the janitor is not running.
func (j *Janitor) Next() time.Time {
	return j.cron.Entry(j.entry).Next
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
