package api

import (
	"github.com/lysyi3m/news-crawl/app/database"
	"github.com/lysyi3m/news-crawl/app/export"
	"github.com/lysyi3m/news-crawl/app/feed"
	"github.com/lysyi3m/news-crawl/app/summary"
	"github.com/lysyi3m/news-crawl/app/tasks"
)

type GeneratorInterface interface {
	Run(channel export.Channel, articles []feed.Article) (string, error)
}

var _ GeneratorInterface = (*export.RSSGenerator)(nil)

// HealthReporter is implemented by components that expose a health summary.
type HealthReporter interface {
	Health() map[string]any
}

type Handler struct {
	taskRepo    database.TaskRepository
	articleRepo database.ArticleRepository
	sourceRepo  database.SourceRepository
	summaries   *summary.Engine
	scheduler   tasks.TaskSchedulerInterface
	runner      tasks.CrawlRunner
	broadcaster *Broadcaster
	generator   GeneratorInterface
	baseURL     string
	version     string
}

type createTaskRequest struct {
	Query       string   `json:"query"`
	Since       string   `json:"since"`
	Limit       int      `json:"limit"`
	CustomFeeds []string `json:"custom_feeds"`
}

type sourceRequest struct {
	Name          string `json:"name"`
	URLTemplate   string `json:"url_template"`
	SupportsQuery bool   `json:"supports_query"`
	IsActive      *bool  `json:"is_active"`
	Priority      int    `json:"priority"`
}

func (r sourceRequest) toSource() feed.Source {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return feed.Source{
		Name:          r.Name,
		URLTemplate:   r.URLTemplate,
		SupportsQuery: r.SupportsQuery,
		Priority:      r.Priority,
		Active:        active,
	}
}

type regenerateRequest struct {
	ArticleIDs []string `json:"article_ids"`
	Strategy   string   `json:"strategy"`
}

type strategyRequest struct {
	Strategy string `json:"strategy"`
}
