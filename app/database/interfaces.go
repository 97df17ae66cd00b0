package database

import (
	"context"

	"github.com/lysyi3m/news-crawl/app/crawl"
	"github.com/lysyi3m/news-crawl/app/feed"
	"github.com/lysyi3m/news-crawl/app/summary"
)

// Lookups return (nil, nil) when the record does not exist.

type TaskRepository interface {
	CreateTask(ctx context.Context, req crawl.Request) (*Task, error)
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
	SaveState(ctx context.Context, id string, snapshot crawl.Snapshot) error
	ResetTask(ctx context.Context, id string) error
}

type ArticleRepository interface {
	UpsertArticle(ctx context.Context, taskID string, article feed.Article) error
	GetArticle(ctx context.Context, id string) (*Article, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]Article, error)
	ArticlesByIDs(ctx context.Context, ids []string) ([]Article, error)
	UpdateSummary(ctx context.Context, id, summary string) error
	GetSummaryCounts(ctx context.Context) (SummaryCounts, error)
}

type SourceRepository interface {
	crawl.Catalog

	ListSources(ctx context.Context) ([]Source, error)
	GetSource(ctx context.Context, id int64) (*Source, error)
	CreateSource(ctx context.Context, source feed.Source) (*Source, error)
	UpdateSource(ctx context.Context, id int64, source feed.Source) (*Source, error)
	DeleteSource(ctx context.Context, id int64) (bool, error)
	SeedSources(ctx context.Context, sources []feed.Source) (int, error)
}

type ConfigRepository interface {
	summary.StrategyStore
	SeedStrategy(ctx context.Context, strategy summary.Strategy) (bool, error)
}
