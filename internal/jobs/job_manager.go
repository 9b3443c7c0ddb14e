package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// newCron parses six field specs and never overlaps runs of the same job.
func newCron() *cron.Cron {
	return cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	negotiationTimeoutJob *NegotiationTimeoutJob
	pendingStartJob       *PendingStartJob
}

// NewJobManager creates both sweeps on the same schedule.
func NewJobManager(
	expireHandler ExpireStartRequestsHandler,
	pendingHandler StartPendingOrdersHandler,
	schedule string,
	logger *zap.Logger,
) *JobManager {
	return &JobManager{
		negotiationTimeoutJob: NewNegotiationTimeoutJob(expireHandler, schedule, logger),
		pendingStartJob:       NewPendingStartJob(pendingHandler, schedule, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.pendingStartJob.Start(); err != nil {
		return fmt.Errorf("failed to start pending start job: %w", err)
	}

	if err := jm.negotiationTimeoutJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.pendingStartJob.Stop()
		return fmt.Errorf("failed to start negotiation timeout job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.negotiationTimeoutJob.Stop()
	jm.pendingStartJob.Stop()
}
