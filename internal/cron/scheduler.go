package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweeperSpec runs the stale request sweep shortly after midnight.
const DefaultSweeperSpec = "5 0 * * *"

// RequestExpirer rejects pending requests whose date has passed.
type RequestExpirer interface {
	ExpireStale(ctx context.Context, asOf time.Time) (int, error)
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron    *cron.Cron
	expirer RequestExpirer
	logger  *zap.Logger
	now     func() time.Time
	timeout time.Duration
}

// NewScheduler builds a scheduler. Jobs run in UTC.
func NewScheduler(expirer RequestExpirer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		expirer: expirer,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		timeout: time.Minute,
	}
}

// RegisterSweeper schedules the stale request sweep on spec.
func (s *Scheduler) RegisterSweeper(spec string) error {
	if spec == "" {
		spec = DefaultSweeperSpec
	}
	_, err := s.cron.AddFunc(spec, func() { s.Sweep(context.Background()) })
	return err
}

// Sweep expires stale requests once. Failures are logged, never fatal.
func (s *Scheduler) Sweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	expired, err := s.expirer.ExpireStale(ctx, s.now())
	if err != nil {
		s.logger.Error("stale request sweep failed", zap.Error(err))
		return 0
	}
	if expired > 0 {
		s.logger.Info("expired stale room requests", zap.Int("count", expired))
	}
	return expired
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
