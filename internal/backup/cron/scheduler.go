package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/logging"
)

// Job is the nightly backup and sync pass.
type Job interface {
	RunNightly(ctx context.Context) error
}

type Scheduler struct {
	c       *cron.Cron
	id      cron.EntryID
	log     *zap.Logger
	timeout time.Duration

	// base is the parent of every job context; cancel aborts a running job.
	base   context.Context
	cancel context.CancelFunc
}

// NewScheduler registers job under a six-field cron spec (seconds first).
// Overlapping runs are skipped.
func NewScheduler(spec string, job Job, log *zap.Logger, timeout time.Duration) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 6 * time.Hour
	}
	clog := cronLogger{s: log.Sugar()}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	base, cancel := context.WithCancel(context.Background())
	s := &Scheduler{c: c, log: log, timeout: timeout, base: base, cancel: cancel}

	id, err := c.AddFunc(spec, func() { s.run(job) })
	if err != nil {
		return nil, fmt.Errorf("schedule nightly job %q: %w", spec, err)
	}
	s.id = id
	return s, nil
}

// Start begins scheduling. Jobs run under ctx, so cancelling it aborts a
// job in flight.
func (s *Scheduler) Start(ctx context.Context) {
	s.cancel()
	s.base, s.cancel = context.WithCancel(ctx)
	s.c.Start()
	s.log.Info("cron scheduler started", zap.Time("next_run", s.c.Entry(s.id).Next))
}

// Stop halts scheduling and waits for a running job. When ctx expires first
// the job's context is cancelled and Stop waits for it to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.c.Stop().Done()
	select {
	case <-done:
		s.cancel()
		s.log.Info("cron scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return fmt.Errorf("waiting for nightly job: %w", ctx.Err())
	}
}

func (s *Scheduler) run(job Job) {
	log := s.log.With(zap.String("job", "nightly"))
	ctx, cancel := context.WithTimeout(logging.WithLogger(s.base, log), s.timeout)
	defer cancel()

	log.Info("nightly job started")
	start := time.Now()
	if err := job.RunNightly(ctx); err != nil {
		log.Error("nightly job failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	log.Info("nightly job completed", zap.Duration("took", time.Since(start)))
}

// cronLogger routes robfig/cron's own messages through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
