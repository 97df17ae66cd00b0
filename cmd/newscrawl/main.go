package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/news-crawl/app/crawl"
	"github.com/lysyi3m/news-crawl/app/export"
	"github.com/lysyi3m/news-crawl/app/feed"
	"github.com/lysyi3m/news-crawl/app/summary"
)

type options struct {
	Query    string `short:"q" long:"query" required:"true" description:"Search keywords"`
	Since    string `long:"since" description:"Only keep articles published at or after this date"`
	Limit    int    `short:"n" long:"limit" default:"50" description:"Maximum number of articles"`
	Feeds    string `long:"feeds" description:"Comma-separated feed URLs replacing the source catalog"`
	Output   string `short:"o" long:"output" default:"./output" description:"Directory for news.jsonl and news.csv"`
	Sources  string `long:"sources" env:"SOURCES_FILE" description:"YAML source catalog (defaults to the built-in sources)"`
	Strategy string `long:"summary-strategy" default:"rss_first" description:"Summary strategy (rss_first, ai_generated, hybrid, simple)"`
	Gemini   string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key enabling AI summaries (optional)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("Crawl failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	req, err := crawl.NewRequest(opts.Query, opts.Since, opts.Limit, splitFeeds(opts.Feeds))
	if err != nil {
		return err
	}

	strategy, err := summary.ParseStrategy(opts.Strategy)
	if err != nil {
		return err
	}

	catalog := feed.NewSourceCatalog(feed.DefaultSources())
	if opts.Sources != "" {
		if catalog, err = feed.LoadSourceFile(opts.Sources); err != nil {
			return fmt.Errorf("failed to load sources: %w", err)
		}
	}

	var summarizer summary.Summarizer
	if opts.Gemini != "" {
		gemini, err := summary.NewGeminiSummarizer(ctx, opts.Gemini, "")
		if err != nil {
			slog.Warn("AI summaries disabled", "error", err)
		} else {
			defer gemini.Close()
			summarizer = gemini
		}
	}

	engine := summary.NewEngine(summary.NewMemoryStore(strategy), summarizer, nil)
	results := &collector{}

	orchestrator := crawl.NewOrchestrator(catalog, results, logNotifier{}, engine, crawl.DefaultOptions())

	state := crawl.NewState()
	runErr := orchestrator.Run(ctx, "cli", req, state)

	// Partial results of a failed run are still written.
	paths, err := export.SaveFiles(opts.Output, results.articles)
	if err != nil {
		return errors.Join(runErr, err)
	}

	slog.Info("Crawl finished",
		"status", state.Status,
		"articles", len(results.articles),
		"files", strings.Join(paths, ", "))

	return runErr
}

func splitFeeds(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// collector keeps crawl results in memory. The orchestrator calls it from a
// single goroutine.
type collector struct {
	articles []feed.Article
}

func (c *collector) SaveArticle(_ context.Context, _ string, article feed.Article) error {
	for i := range c.articles {
		if c.articles[i].URL == article.URL {
			c.articles[i] = article
			return nil
		}
	}
	c.articles = append(c.articles, article)
	return nil
}

func (c *collector) SaveState(context.Context, string, crawl.Snapshot) error {
	return nil
}

type logNotifier struct{}

func (logNotifier) Notify(p crawl.Progress) {
	slog.Info("Progress",
		"status", p.Status,
		"progress", p.Progress,
		"processed", p.ProcessedArticles,
		"total", p.TotalArticles,
		"message", p.Message)
}
