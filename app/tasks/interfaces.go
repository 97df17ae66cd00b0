package tasks

import (
	"context"

	"github.com/lysyi3m/news-crawl/app/crawl"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// The API and the server entry point enqueue work through it; workers run
// each task with a timeout and retry failed ones while they allow it.
// Example usage:
//
//	scheduler := NewScheduler(workerCount, taskTimeout)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewCrawlTask(taskID, req, orchestrator))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// CrawlRunner executes one crawl run.
type CrawlRunner interface {
	Run(ctx context.Context, taskID string, req crawl.Request, state *crawl.State) error
}

var _ CrawlRunner = (*crawl.Orchestrator)(nil)
