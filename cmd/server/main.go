package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-crawl/app/api"
	"github.com/lysyi3m/news-crawl/app/cfg"
	"github.com/lysyi3m/news-crawl/app/crawl"
	"github.com/lysyi3m/news-crawl/app/database"
	"github.com/lysyi3m/news-crawl/app/feed"
	"github.com/lysyi3m/news-crawl/app/summary"
	"github.com/lysyi3m/news-crawl/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown
		return
	}

	setupLogger(appConfig.Debug)

	if err := run(appConfig); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
}

func run(appConfig *cfg.Cfg) error {
	slog.Info("Starting News Crawl server", "version", appConfig.Version)

	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("Connected to database", "path", appConfig.DBPath)

	ctx := context.Background()

	taskRepo := database.NewTaskRepository(db)
	articleRepo := database.NewArticleRepository(db)
	sourceRepo := database.NewSourceRepository(db)
	configRepo := database.NewConfigRepository(db)

	if err := seedSources(ctx, sourceRepo, appConfig.SourcesFile); err != nil {
		return err
	}

	var summarizer summary.Summarizer
	if appConfig.GeminiAPIKey != "" {
		gemini, err := summary.NewGeminiSummarizer(ctx, appConfig.GeminiAPIKey, appConfig.GeminiModel)
		if err != nil {
			slog.Warn("AI summaries disabled", "error", err)
		} else {
			defer gemini.Close()
			summarizer = gemini
			slog.Info("AI summaries enabled", "model", appConfig.GeminiModel)
		}
	}

	engine := summary.NewEngine(configRepo, summarizer, summary.NewCache(summary.DefaultCacheTTL))
	if seeded, err := configRepo.SeedStrategy(ctx, appConfig.SummaryStrategy); err != nil {
		return err
	} else if seeded {
		slog.Info("Summary strategy initialized", "strategy", appConfig.SummaryStrategy)
	}
	slog.Info("Summary engine ready", "strategy", engine.Strategy(ctx), "ai_available", engine.AIAvailable())

	broadcaster := api.NewBroadcaster()

	opts := crawl.DefaultOptions()
	opts.RequestDelay = appConfig.RequestDelay
	opts.RequestTimeout = appConfig.RequestTimeout
	opts.PerHostThrottle = appConfig.PerHostThrottle
	opts.FeedWorkers = appConfig.FeedWorkers
	if appConfig.UserAgent != "" {
		opts.UserAgent = appConfig.UserAgent
	}

	orchestrator := crawl.NewOrchestrator(sourceRepo, database.NewSink(taskRepo, articleRepo),
		broadcaster, engine, opts)

	slog.Info("Starting background scheduler", "workers", appConfig.WorkerCount)
	scheduler := tasks.NewScheduler(appConfig.WorkerCount, appConfig.TaskTimeout)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(taskRepo, articleRepo, sourceRepo, engine, scheduler,
		orchestrator, broadcaster, appConfig.BaseUrl, appConfig.Version)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      api.NewServer(handler, appConfig.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port, "auth", appConfig.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return runErr
}

// seedSources fills an empty source table from the sources file, or from the
// built-in list when no file is configured.
func seedSources(ctx context.Context, repo *database.SourceRepo, path string) error {
	sources := feed.DefaultSources()
	if path != "" {
		catalog, err := feed.LoadSourceFile(path)
		if err != nil {
			return fmt.Errorf("failed to load sources file: %w", err)
		}
		sources = catalog.Sources()
	}

	seeded, err := repo.SeedSources(ctx, sources)
	if err != nil {
		return fmt.Errorf("failed to seed RSS sources: %w", err)
	}
	if seeded > 0 {
		slog.Info("Seeded RSS sources", "count", seeded)
	}

	return nil
}
