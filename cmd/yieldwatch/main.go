package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wtsao/yieldwatch/internal/api"
	"github.com/wtsao/yieldwatch/internal/classify"
	"github.com/wtsao/yieldwatch/internal/config"
	"github.com/wtsao/yieldwatch/internal/database"
	"github.com/wtsao/yieldwatch/internal/event"
	"github.com/wtsao/yieldwatch/internal/logging"
	"github.com/wtsao/yieldwatch/internal/parse"
	"github.com/wtsao/yieldwatch/internal/record"
	"github.com/wtsao/yieldwatch/internal/scanner"
	"github.com/wtsao/yieldwatch/internal/schedule"
	"github.com/wtsao/yieldwatch/internal/stats"
	"github.com/wtsao/yieldwatch/internal/thumb"
	"github.com/wtsao/yieldwatch/internal/timerange"
	"github.com/wtsao/yieldwatch/internal/version"
	"github.com/wtsao/yieldwatch/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("YW_CONFIG_PATH")
	if configPath == "" {
		configPath = "/state/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logCloser := logging.New(logging.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: cfg.Logging.FilePath,
	})
	if logCloser != nil {
		defer logCloser.Close() //nolint:errcheck
	}
	slog.SetDefault(logger)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	loc := cfg.Location()
	store := record.NewStore(db, loc)
	classifier := classify.NewPathClassifier(cfg.Ingest.WatchRoot)
	parser, err := parse.NewFilenameParser(cfg.Ingest.FilenamePattern, loc)
	if err != nil {
		return fmt.Errorf("compiling filename pattern: %w", err)
	}

	scannerService := scanner.NewService(store, classifier, parser, logger, scanner.Options{
		Root:         cfg.Ingest.WatchRoot,
		Extensions:   cfg.Ingest.Extensions,
		MinFileAge:   time.Duration(cfg.Ingest.MinFileAgeSec) * time.Second,
		RecentWindow: time.Duration(cfg.Ingest.RecentWindowMin) * time.Minute,
	})
	statsService := stats.NewService(store, timerange.NewResolver(loc), cfg.Ingest.NGPreviewCount)
	thumbs := thumb.NewCache(cfg.Thumbs.Dir, cfg.Thumbs.MaxDim, logger)

	eventBus := event.NewBus(logger, 256)
	go eventBus.Start()
	defer eventBus.Stop()
	scannerService.SetEventBus(eventBus)

	// Surface NG captures and cycle summaries in the structured log.
	eventBus.Subscribe(event.RecordNG, func(e event.Event) {
		logger.Info("ng capture ingested",
			"path", e.Data["path"],
			"station", e.Data["station"],
			"model", e.Data["model"],
			"ts", e.Data["ts"],
		)
	})
	eventBus.Subscribe(event.ScanCompleted, func(e event.Event) {
		logger.Debug("scan completed",
			"scan_id", e.Data["scan_id"],
			"scanned", e.Data["scanned"],
			"added", e.Data["added"],
		)
	})

	logger.Info("starting yieldwatch",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("watch_root", cfg.Ingest.WatchRoot),
		slog.String("watch_mode", cfg.Ingest.WatchMode),
	)

	router := api.NewRouter(api.RouterDeps{
		ScannerService: scannerService,
		StatsService:   statsService,
		Store:          store,
		Thumbs:         thumbs,
		WatchRoot:      cfg.Ingest.WatchRoot,
		Logger:         logger,
		BasePath:       cfg.Server.BasePath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	scanFn := func(ctx context.Context) error {
		_, err := scannerService.Scan(ctx)
		return err
	}

	// One cycle at boot so the dashboard has data right away. A failure here
	// is not fatal; the periodic cycle retries.
	if _, err := scannerService.Scan(ctx); err != nil {
		logger.Error("startup scan failed", "error", err)
	}

	pollInterval := time.Duration(cfg.Ingest.PollIntervalSec) * time.Second
	switch cfg.Ingest.WatchMode {
	case "notify":
		watcherService := watcher.NewService(cfg.Ingest.WatchRoot, scanFn, logger)
		go func() {
			if err := watcherService.Start(ctx); err != nil {
				logger.Warn("fsnotify unavailable, falling back to polling", "error", err)
				schedule.NewRunner("scan", pollInterval, scanFn, logger).Start(ctx)
			}
		}()
	default:
		go schedule.NewRunner("scan", pollInterval, scanFn, logger).Start(ctx)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("base_path", cfg.Server.BasePath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Returning instead of exiting lets the deferred database, event bus,
	// and log-file cleanup run on listener failure too.
	select {
	case err := <-serveErr:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
