// Package jobs provides scheduled background tasks for the dispatch service.
//
// Jobs use github.com/robfig/cron/v3 with second resolution.
//
// # Available Jobs
//
// OutboxDispatchJob drains due outbox messages through the configured sink,
// by default every second. Overlapping ticks are skipped.
//
// # Usage
//
//	job := jobs.NewOutboxDispatchJob(dispatcher, cmd, "", time.Minute, logger)
//	manager := jobs.NewJobManager(job)
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
package jobs
