package database

import (
	"time"

	"github.com/lysyi3m/news-crawl/app/crawl"
	"github.com/lysyi3m/news-crawl/app/feed"
)

type Task struct {
	ID                string       `json:"id"`
	Query             string       `json:"query"`
	Since             *time.Time   `json:"since"`
	MaxArticles       int          `json:"max_articles"`
	CustomFeeds       []string     `json:"custom_feeds"`
	Status            crawl.Status `json:"status"`
	Progress          int          `json:"progress"`
	TotalArticles     int          `json:"total_articles"`
	ProcessedArticles int          `json:"processed_articles"`
	ErrorMessage      string       `json:"error_message"`
	CreatedAt         time.Time    `json:"created_at"`
	StartedAt         *time.Time   `json:"started_at"`
	CompletedAt       *time.Time   `json:"completed_at"`
}

// Request rebuilds the crawl parameters the task was created with.
func (t *Task) Request() crawl.Request {
	return crawl.Request{
		Query:       t.Query,
		Since:       t.Since,
		Limit:       t.MaxArticles,
		CustomFeeds: t.CustomFeeds,
	}
}

type Article struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	feed.Article
	CreatedAt time.Time `json:"created_at"`
}

type Source struct {
	ID int64 `json:"id"`
	feed.Source
	CreatedAt time.Time `json:"created_at"`
}

type TaskFilter struct {
	Status crawl.Status
	Limit  int
	Offset int
}

type ArticleFilter struct {
	TaskID string
	Source string
	Limit  int
	Offset int
}

// DefaultPageSize applies when a filter leaves Limit unset.
const DefaultPageSize = 100

type SummaryCounts struct {
	TotalArticles       int
	ArticlesWithSummary int
}
