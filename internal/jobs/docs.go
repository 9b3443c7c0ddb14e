// Package jobs provides scheduled background sweeps of the transport order
// service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
// Schedules use six fields (with seconds) and a run is skipped while the
// previous run of the same job is still busy.
//
// # Available Jobs
//
// 1. NegotiationTimeoutJob - re-sends unanswered start requests and moves orders
// to ONFAILURE once the attempts are used up
// 2. PendingStartJob - starts the next order of units that have initialized
// orders but no started one
//
// # Usage
//
//	jobManager := jobs.NewJobManager(expireHandler, pendingHandler, "*/10 * * * * *", logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Failed runs are logged and counted; the next run is attempted on schedule.
// Failed job starts stop any already running jobs.
package jobs
