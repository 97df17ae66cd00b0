package cfg

import (
	"time"

	"github.com/lysyi3m/news-crawl/app/summary"
)

type Cfg struct {
	// Storage
	DBPath      string
	SourcesFile string

	// HTTP server
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Task processing
	WorkerCount int
	TaskTimeout time.Duration

	// Crawling
	FeedWorkers     int
	RequestDelay    time.Duration
	RequestTimeout  time.Duration
	PerHostThrottle bool
	UserAgent       string

	// Summaries
	SummaryStrategy summary.Strategy
	GeminiAPIKey    string
	GeminiModel     string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
