package database

import (
	"context"

	"github.com/lysyi3m/news-crawl/app/crawl"
	"github.com/lysyi3m/news-crawl/app/feed"
)

// Sink persists crawl output into the task and article tables.
type Sink struct {
	tasks    TaskRepository
	articles ArticleRepository
}

var _ crawl.Sink = (*Sink)(nil)

func NewSink(tasks TaskRepository, articles ArticleRepository) *Sink {
	return &Sink{tasks: tasks, articles: articles}
}

func (s *Sink) SaveArticle(ctx context.Context, taskID string, article feed.Article) error {
	return s.articles.UpsertArticle(ctx, taskID, article)
}

func (s *Sink) SaveState(ctx context.Context, taskID string, snapshot crawl.Snapshot) error {
	return s.tasks.SaveState(ctx, taskID, snapshot)
}
