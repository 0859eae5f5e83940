package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	defaultReconcileSpec = "0 */10 * * * *"
	reconcileBatch       = 50
	reconcileTimeout     = 2 * time.Minute
)

// Reconciler settles payments whose callbacks never arrived.
type Reconciler interface {
	Reconcile(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// Scheduler manages all cron jobs.
type Scheduler struct {
	cron       *cron.Cron
	logger     *zap.Logger
	reconciler Reconciler
	spec       string
	pendingTTL time.Duration
}

// New creates a new cron scheduler. An empty spec falls back to every ten minutes.
func New(spec string, pendingTTL time.Duration, reconciler Reconciler, logger *zap.Logger) *Scheduler {
	if spec == "" {
		spec = defaultReconcileSpec
	}
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger,
		reconciler: reconciler,
		spec:       spec,
		pendingTTL: pendingTTL,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting cron scheduler...")

	if _, err := s.cron.AddFunc(s.spec, func() {
		s.logger.Debug("Running: payment reconcile")
		s.reconcilePayments()
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started", zap.String("reconcile_spec", s.spec))
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) reconcilePayments() {
	defer s.recoverFromPanic("reconcilePayments")

	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	settled, err := s.reconciler.Reconcile(ctx, s.pendingTTL, reconcileBatch)
	if err != nil {
		s.logger.Error("Payment reconcile failed", zap.Error(err))
		return
	}
	if settled > 0 {
		s.logger.Info("Payment reconcile completed", zap.Int("settled", settled))
		return
	}
	s.logger.Debug("Payment reconcile completed", zap.Int("settled", 0))
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
