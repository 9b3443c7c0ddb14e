package jobs

import (
	"context"

	"tms/internal/adapters/out/metrics"
	"tms/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type ExpireStartRequestsHandler interface {
	Handle(ctx context.Context, cmd commands.ExpireStartRequestsCommand) (commands.ExpireStartRequestsResult, error)
}

// NegotiationTimeoutJob re-sends unanswered start requests and fails orders
// whose negotiation ran out of attempts.
type NegotiationTimeoutJob struct {
	handler  ExpireStartRequestsHandler
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewNegotiationTimeoutJob(handler ExpireStartRequestsHandler, schedule string, logger *zap.Logger) *NegotiationTimeoutJob {
	return &NegotiationTimeoutJob{
		handler:  handler,
		schedule: schedule,
		cron:     newCron(),
		logger:   logger.With(zap.String("component", "negotiation_timeout_job")),
	}
}

func (j *NegotiationTimeoutJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, j.Run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Negotiation timeout job started", zap.String("schedule", j.schedule))
	return nil
}

// Run performs one sweep.
func (j *NegotiationTimeoutJob) Run() {
	ctx := context.Background()

	result, err := j.handler.Handle(ctx, commands.NewExpireStartRequestsCommand())
	metrics.JobRunsTotal.WithLabelValues("negotiation_timeout", metrics.Result(err)).Inc()
	if err != nil {
		j.logger.Error("Negotiation timeout job failed", zap.Error(err))
		return
	}
	if result.Resent > 0 || result.Failed > 0 {
		j.logger.Info("Expired start requests handled",
			zap.Int("resent", result.Resent),
			zap.Int("failed", result.Failed),
		)
	}
}

// Stop stops the schedule and waits for a running sweep.
func (j *NegotiationTimeoutJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Negotiation timeout job stopped")
}
