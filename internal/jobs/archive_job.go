// Package jobs provides the scheduled automatic transitions: archiving
// completed orders after their retention window and closing dormant ones.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/application/engine"
	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/domain/order"
	"github.com/scribeworks/orderflow/internal/domain/transition"
)

const (
	actionAutoArchive = "auto_archive"
	actionAutoClose   = "auto_close"
)

// ArchiveCompletedJob moves completed orders to archived once they have been
// untouched for the retention window.
type ArchiveCompletedJob struct {
	orders    port.OrderRepository
	executor  *engine.Executor
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	logger    *zap.Logger
}

func NewArchiveCompletedJob(orders port.OrderRepository, executor *engine.Executor, retention time.Duration, schedule string, logger *zap.Logger) *ArchiveCompletedJob {
	return &ArchiveCompletedJob{
		orders:    orders,
		executor:  executor,
		retention: retention,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    logger.With(zap.String("job", "archive_completed")),
	}
}

// Start schedules the job.
func (j *ArchiveCompletedJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if err := j.RunOnce(context.Background()); err != nil {
			j.logger.Error("archive job run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("archive job started", zap.String("schedule", j.schedule))
	return nil
}

// Stop stops the schedule; a run in flight finishes.
func (j *ArchiveCompletedJob) Stop() {
	j.cron.Stop()
	j.logger.Info("archive job stopped")
}

// RunOnce archives every completed order past retention. Per-order races with
// manual transitions are expected and skipped, not failures.
func (j *ArchiveCompletedJob) RunOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-j.retention)
	orders, err := j.orders.ListByStatusOlderThan(ctx, order.StatusCompleted, cutoff)
	if err != nil {
		return err
	}

	for _, o := range orders {
		_, err := j.executor.Transition(ctx, engine.Request{
			OrderID:     o.ID,
			Target:      order.StatusArchived,
			Action:      actionAutoArchive,
			Reason:      "retention window elapsed",
			IsAutomatic: true,
		})
		if err != nil && !isLostRace(err) {
			j.logger.Error("failed to archive order",
				zap.String("order_id", o.ID.String()), zap.Error(err))
		}
	}
	return nil
}

// isLostRace reports whether a concurrent caller moved the order first.
func isLostRace(err error) bool {
	return errors.Is(err, transition.ErrAlreadyInTargetStatus) ||
		errors.Is(err, transition.ErrInvalidTransition) ||
		errors.Is(err, transition.ErrTransitionConflict)
}
