package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/application/engine"
	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/domain/order"
)

// CloseDormantJob closes archived and refunded orders once they have been
// dormant long enough, ending the engine's responsibility for them.
type CloseDormantJob struct {
	orders   port.OrderRepository
	executor *engine.Executor
	dormancy time.Duration
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewCloseDormantJob(orders port.OrderRepository, executor *engine.Executor, dormancy time.Duration, schedule string, logger *zap.Logger) *CloseDormantJob {
	return &CloseDormantJob{
		orders:   orders,
		executor: executor,
		dormancy: dormancy,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With(zap.String("job", "close_dormant")),
	}
}

func (j *CloseDormantJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if err := j.RunOnce(context.Background()); err != nil {
			j.logger.Error("close job run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("close job started", zap.String("schedule", j.schedule))
	return nil
}

func (j *CloseDormantJob) Stop() {
	j.cron.Stop()
	j.logger.Info("close job stopped")
}

// RunOnce closes dormant archived and refunded orders.
func (j *CloseDormantJob) RunOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-j.dormancy)

	for _, status := range []order.Status{order.StatusArchived, order.StatusRefunded} {
		orders, err := j.orders.ListByStatusOlderThan(ctx, status, cutoff)
		if err != nil {
			return err
		}
		for _, o := range orders {
			_, err := j.executor.Transition(ctx, engine.Request{
				OrderID:     o.ID,
				Target:      order.StatusClosed,
				Action:      actionAutoClose,
				Reason:      "dormancy window elapsed",
				IsAutomatic: true,
			})
			if err != nil && !isLostRace(err) {
				j.logger.Error("failed to close order",
					zap.String("order_id", o.ID.String()), zap.Error(err))
			}
		}
	}
	return nil
}
