package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/trustbit/mandi-service/internal/deal"
	"go.uber.org/zap"
)

// Scheduler runs the nightly reconciliation that restores the derived
// delivered/pending/status columns of every active deal from the
// submitted-delivery ground truth.
type Scheduler struct {
	cron   *cron.Cron
	dealUC deal.UseCase
	logger *zap.Logger
}

func New(dealUC deal.UseCase, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		dealUC: dealUC,
		logger: logger,
	}
}

// Start registers the reconcile job and starts the cron loop. schedule is
// a standard 5-field cron expression.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.reconcile)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reconciliation scheduler started", zap.String("schedule", schedule))
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	n, err := s.dealUC.RecalculateAll(ctx)
	if err != nil {
		s.logger.Error("deal reconciliation failed", zap.Error(err))
		return
	}
	s.logger.Info("deal reconciliation finished",
		zap.Int("deals", n),
		zap.Duration("took", time.Since(start)))
}
