package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/news-crawl/app/crawl"
)

// CrawlTask runs a stored crawl. Its ID is the crawl task ID so scheduler
// logs and task records line up. It is never retried automatically: a
// failure is recorded on the task and retried on request.
type CrawlTask struct {
	Task
	request crawl.Request
	runner  CrawlRunner
}

func NewCrawlTask(taskID string, req crawl.Request, runner CrawlRunner) *CrawlTask {
	task := NewTask(TaskTypeCrawl, req.Query)
	task.ID = taskID
	task.MaxRetries = 0

	return &CrawlTask{
		Task:    task,
		request: req,
		runner:  runner,
	}
}

func (t *CrawlTask) Execute(ctx context.Context) error {
	slog.Debug("Crawl task started", "task_id", t.ID, "query", t.request.Query)

	if err := t.runner.Run(ctx, t.ID, t.request, crawl.NewState()); err != nil {
		return err
	}

	slog.Debug("Crawl task finished", "task_id", t.ID, "duration", t.GetDuration().String())

	return nil
}
