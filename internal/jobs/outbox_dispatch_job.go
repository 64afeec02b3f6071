package jobs

import (
	"context"
	"errors"
	"time"

	"waterdist/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultOutboxSchedule runs the dispatcher every second.
const DefaultOutboxSchedule = "* * * * * *"

// OutboxDispatcher drains one batch of due outbox messages.
type OutboxDispatcher interface {
	Handle(ctx context.Context, cmd commands.DispatchOutboxCommand) (commands.DispatchResult, error)
}

// OutboxDispatchJob runs the outbox dispatcher on a cron schedule. A run that
// is still in progress when the next tick fires makes that tick a no-op.
type OutboxDispatchJob struct {
	dispatcher OutboxDispatcher
	cmd        commands.DispatchOutboxCommand
	schedule   string
	timeout    time.Duration
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	logger     *zap.SugaredLogger
}

// NewOutboxDispatchJob creates the job. An empty schedule selects
// DefaultOutboxSchedule; timeout bounds a single run.
func NewOutboxDispatchJob(
	dispatcher OutboxDispatcher,
	cmd commands.DispatchOutboxCommand,
	schedule string,
	timeout time.Duration,
	logger *zap.SugaredLogger,
) *OutboxDispatchJob {
	if schedule == "" {
		schedule = DefaultOutboxSchedule
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	logger = logger.With("component", "outbox_dispatch_job")
	ctx, cancel := context.WithCancel(context.Background())

	return &OutboxDispatchJob{
		dispatcher: dispatcher,
		cmd:        cmd,
		schedule:   schedule,
		timeout:    timeout,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
		),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start registers the schedule and starts the scheduler.
func (j *OutboxDispatchJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.RunOnce); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Infow("outbox_dispatch_job_started", "schedule", j.schedule)
	return nil
}

// RunOnce dispatches a single batch.
func (j *OutboxDispatchJob) RunOnce() {
	ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
	defer cancel()

	result, err := j.dispatcher.Handle(ctx, j.cmd)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			j.logger.Errorw("outbox_dispatch_job_failed", "error", err)
		}
		return
	}
	if result.Claimed > 0 {
		j.logger.Debugw("outbox_dispatch_job_ran",
			"claimed", result.Claimed, "sent", result.Sent, "retried", result.Retried, "failed", result.Failed)
	}
}

// Stop cancels a running batch and waits for it to return.
func (j *OutboxDispatchJob) Stop() {
	j.cancel()
	<-j.cron.Stop().Done()
	j.logger.Infow("outbox_dispatch_job_stopped")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
