package jobs

import (
	"context"

	"tms/internal/adapters/out/metrics"
	"tms/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type StartPendingOrdersHandler interface {
	Handle(ctx context.Context, cmd commands.StartPendingOrdersCommand) error
}

// PendingStartJob starts the next order of every unit that has initialized
// orders but none started, covering lifecycle events lost in a crash.
type PendingStartJob struct {
	handler  StartPendingOrdersHandler
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewPendingStartJob(handler StartPendingOrdersHandler, schedule string, logger *zap.Logger) *PendingStartJob {
	return &PendingStartJob{
		handler:  handler,
		schedule: schedule,
		cron:     newCron(),
		logger:   logger.With(zap.String("component", "pending_start_job")),
	}
}

func (j *PendingStartJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, j.Run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Pending start job started", zap.String("schedule", j.schedule))
	return nil
}

// Run performs one sweep.
func (j *PendingStartJob) Run() {
	err := j.handler.Handle(context.Background(), commands.NewStartPendingOrdersCommand())
	metrics.JobRunsTotal.WithLabelValues("pending_start", metrics.Result(err)).Inc()
	if err != nil {
		j.logger.Error("Pending start job failed", zap.Error(err))
	}
}

func (j *PendingStartJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Pending start job stopped")
}
