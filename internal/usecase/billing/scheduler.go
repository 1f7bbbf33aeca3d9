package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edu-lending-core/internal/infrastructure/lock"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler drives the billing jobs from cron specs with a seconds field.
type Scheduler struct {
	cron *cron.Cron
	uc   *Usecase
	ctx  context.Context
	now  func() time.Time
}

func NewScheduler(ctx context.Context, uc *Usecase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		uc:   uc,
		ctx:  ctx,
		now:  time.Now,
	}
}

func (s *Scheduler) Register(custodySpec, overdueSpec string) error {
	if _, err := s.cron.AddFunc(custodySpec, s.custodyTask); err != nil {
		return fmt.Errorf("register custody task: %w", err)
	}
	if _, err := s.cron.AddFunc(overdueSpec, s.overdueTask); err != nil {
		return fmt.Errorf("register overdue task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.uc.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.uc.log.Info("scheduler stopped")
}

func (s *Scheduler) custodyTask() {
	if _, err := s.uc.RunMonthlyCustody(s.ctx, s.now()); err != nil {
		s.logRunError("custody", err)
	}
}

func (s *Scheduler) overdueTask() {
	if _, err := s.uc.RunOverdue(s.ctx, s.now()); err != nil {
		s.logRunError("overdue", err)
	}
}

func (s *Scheduler) logRunError(job string, err error) {
	if errors.Is(err, lock.ErrNotAcquired) {
		s.uc.log.Info("run held by another worker", zap.String("job", job))
		return
	}
	s.uc.log.Error("billing run failed", zap.String("job", job), zap.Error(err))
}
