package scheduler

import (
	"context"
	"fmt"
	"time"

	"video-summarizer/shared/logger"
	"video-summarizer/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Result is what a successful run reports.
type Result interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// Events provides callbacks for monitoring job execution
type Events struct {
	OnSuccess func(result Result, duration time.Duration)
	OnFailure func(err error, duration time.Duration)
}

// Job is a periodic background task.
type Job interface {
	Name() string
	RunOnce(ctx context.Context, events *Events) error
}

// Scheduler runs one job on a cron schedule and records each outcome in a Monitor.
type Scheduler struct {
	schedule string
	monitor  *monitoring.Monitor
	job      Job
	cron     *cron.Cron
	log      logger.Logger
}

func New(schedule string, job Job, monitor *monitoring.Monitor, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	cronLog := cronLogger{log: log}

	return &Scheduler{
		schedule: schedule,
		monitor:  monitor,
		job:      job,
		log:      log,
		// Prevent overlapping runs
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
}

// Start blocks until ctx is cancelled, then waits for a running job to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("Scheduled job failed", logger.String("job", s.job.Name()), logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.log.Info("Scheduler started", logger.String("job", s.job.Name()), logger.String("schedule", s.schedule))
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped", logger.String("job", s.job.Name()))
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	name := s.job.Name()

	events := &Events{
		OnSuccess: func(result Result, duration time.Duration) {
			s.monitor.RecordSuccess(result.GetSummary(), duration)
		},
		OnFailure: func(err error, duration time.Duration) {
			s.monitor.RecordFailure(fmt.Errorf("%s: %w", name, err), duration)
		},
	}

	if err := s.job.RunOnce(ctx, events); err != nil {
		s.monitor.RecordFailure(fmt.Errorf("%s failed: %w", name, err), time.Since(startTime))
		return fmt.Errorf("%s run failed: %w", name, err)
	}
	return nil
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(keysAndValues []any) []logger.Field {
	out := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		out = append(out, logger.Any(key, keysAndValues[i+1]))
	}
	return out
}
