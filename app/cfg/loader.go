package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/news-crawl/app/summary"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./news_crawler.db" description:"SQLite database file"`
	SourcesFile string `long:"sources-file" env:"SOURCES_FILE" description:"YAML file of RSS sources to seed an empty database with"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8000" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Task processing
	WorkerCount int           `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers running crawl tasks"`
	TaskTimeout time.Duration `long:"task-timeout" env:"TASK_TIMEOUT" default:"1h" description:"Maximum duration of a single task"`

	// Crawling
	FeedWorkers     int           `long:"feed-workers" env:"FEED_WORKERS" default:"8" description:"Feeds fetched in parallel per crawl"`
	RequestDelay    time.Duration `long:"request-delay" env:"REQUEST_DELAY" default:"1s" description:"Minimum spacing between outbound requests"`
	RequestTimeout  time.Duration `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30s" description:"Timeout of a single HTTP request"`
	PerHostThrottle bool          `long:"per-host-throttle" env:"PER_HOST_THROTTLE" description:"Space requests per host instead of globally"`
	UserAgent       string        `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests"`

	// Summaries
	SummaryStrategy string `long:"summary-strategy" env:"SUMMARY_STRATEGY" default:"rss_first" description:"Initial summary strategy (rss_first, ai_generated, hybrid, simple)"`
	GeminiAPIKey    string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key enabling AI summaries (optional)"`
	GeminiModel     string `long:"gemini-model" env:"GEMINI_MODEL" description:"Gemini model used for AI summaries"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs parses args and the environment. It returns (nil, nil) when help
// was requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	strategy, err := summary.ParseStrategy(raw.SummaryStrategy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be at least 1")
	}
	if raw.FeedWorkers < 1 {
		return nil, fmt.Errorf("feed workers must be at least 1")
	}
	if raw.RequestDelay < 0 {
		return nil, fmt.Errorf("request delay must not be negative")
	}

	cfg := &Cfg{
		DBPath:          raw.DBPath,
		SourcesFile:     raw.SourcesFile,
		Port:            raw.Port,
		BaseUrl:         raw.BaseUrl,
		APIAccessKey:    raw.APIAccessKey,
		WorkerCount:     raw.WorkerCount,
		TaskTimeout:     raw.TaskTimeout,
		FeedWorkers:     raw.FeedWorkers,
		RequestDelay:    raw.RequestDelay,
		RequestTimeout:  raw.RequestTimeout,
		PerHostThrottle: raw.PerHostThrottle,
		UserAgent:       raw.UserAgent,
		SummaryStrategy: strategy,
		GeminiAPIKey:    raw.GeminiAPIKey,
		GeminiModel:     raw.GeminiModel,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
