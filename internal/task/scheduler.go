package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultInterval = time.Minute

	logEventTaskRun  = "task_run"
	logFieldTaskName = "task"
)

// Runner is the unit of work a Scheduler invokes on every cycle.
type Runner func(context.Context)

// Scheduler invokes a named runner on a fixed interval until stopped.
// Trigger queues one extra run without waiting for the next tick.
type Scheduler struct {
	name     string
	interval time.Duration
	runner   Runner
	logger   *zap.Logger

	trigger chan struct{}

	mutex  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler builds a stopped Scheduler. A non-positive interval falls back
// to one minute.
func NewScheduler(name string, interval time.Duration, runner Runner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		runner:   runner,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Start launches the run loop. Calling Start on a running scheduler is a
// no-op.
func (scheduler *Scheduler) Start(ctx context.Context) {
	if scheduler.runner == nil {
		return
	}

	scheduler.mutex.Lock()
	defer scheduler.mutex.Unlock()
	if scheduler.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	scheduler.cancel = cancel
	scheduler.done = make(chan struct{})
	go scheduler.loop(loopCtx, scheduler.done)
}

// Trigger queues an immediate run. Triggers arriving while one is already
// queued collapse into a single run.
func (scheduler *Scheduler) Trigger() {
	select {
	case scheduler.trigger <- struct{}{}:
	default:
	}
}

// Stop cancels the run loop and waits for it to exit.
func (scheduler *Scheduler) Stop() {
	scheduler.mutex.Lock()
	cancel := scheduler.cancel
	done := scheduler.done
	scheduler.cancel = nil
	scheduler.done = nil
	scheduler.mutex.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (scheduler *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(scheduler.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-scheduler.trigger:
		case <-ticker.C:
		}

		scheduler.logger.Debug(logEventTaskRun, zap.String(logFieldTaskName, scheduler.name))
		scheduler.runner(ctx)
	}
}
