package main

import (
	"context"
	"fmt"
	"os"

	"chart-relay-bot/internal/capture"
	"chart-relay-bot/internal/capture/captureobs"
	"chart-relay-bot/internal/capture/chrome"
	"chart-relay-bot/internal/contextstore"
	"chart-relay-bot/internal/engine"
	"chart-relay-bot/internal/engine/engineobs"
	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/journal"
	"chart-relay-bot/internal/llm/claude"
	"chart-relay-bot/internal/llm/llmobs"
	"chart-relay-bot/internal/llm/noop"
	"chart-relay-bot/internal/llm/openai"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/metrics"
	"chart-relay-bot/internal/notify"
	"chart-relay-bot/internal/notify/notifyobs"
	"chart-relay-bot/internal/notify/telegram"
	"chart-relay-bot/internal/store"
	"chart-relay-bot/internal/trace"

	"github.com/joho/godotenv"
)

// initializeSystem loads .env and initializes logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig reads CONFIG_PATH (default config.yaml) plus environment overrides
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs gzips journal files past the retention window
func compressOldLogs(ctx context.Context, cfg *store.Config, j *journal.Journal) {
	if err := j.CompressOlder(cfg.Journal.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err)
	}
}

func initializeCapturer(ctx context.Context, cfg *store.Config, j *journal.Journal) interfaces.Capturer {
	var c interfaces.Capturer = chrome.New(cfg)
	if cfg.Chart.ProfileDir != "" {
		logger.Info(ctx, "Using browser profile", "dir", cfg.Chart.ProfileDir)
	}
	if cfg.Journal.ArchiveCaptures {
		c = capture.WithArchive(c, j)
	}
	return captureobs.Wrap(c)
}

// initializeAnalyzer initializes the vision model client with observability
func initializeAnalyzer(ctx context.Context, cfg *store.Config) interfaces.Analyzer {
	var analyzer interfaces.Analyzer

	switch cfg.LLM.Provider {
	case "OPENAI":
		analyzer = openai.NewVisionAnalyzer(cfg)
	case "CLAUDE":
		analyzer = claude.NewVisionAnalyzer(cfg)
	default:
		analyzer = noop.NewNoopAnalyzer()
		logger.Warn(ctx, "No LLM provider configured - using Noop analyzer (always ESPERA)")
	}

	return llmobs.Wrap(analyzer, cfg.LLM.Provider)
}

// initializeNotifiers returns the alert channel (keyword-filtered when
// configured) and the unfiltered report channel.
func initializeNotifiers(ctx context.Context, cfg *store.Config) (alerts, reports interfaces.Notifier, err error) {
	var base interfaces.Notifier
	channel := "log"

	if cfg.Mode == "DRY_RUN" || cfg.Notify.Provider == "LOG" {
		logger.Warn(ctx, "Notifications go to the log only", "mode", cfg.Mode, "provider", cfg.Notify.Provider)
		base = notify.NewLogNotifier()
	} else {
		tg, tgErr := telegram.New(cfg.Secrets.TelegramToken, cfg.Secrets.TelegramChatID, cfg.Notify.ParseMode, cfg.Notify.APIEndpoint)
		if tgErr != nil {
			return nil, nil, tgErr
		}
		base = tg
		channel = "telegram"
	}

	reports = notifyobs.Wrap(base, channel)
	alerts = reports
	if cfg.Notify.FilterAlerts {
		alerts = notify.NewKeywordFilter(reports, cfg.Notify.Keywords)
	}
	return alerts, reports, nil
}

// initializeContextStore picks the file or Redis backend for the market context
func initializeContextStore(ctx context.Context, cfg *store.Config) (interfaces.ContextStore, error) {
	if cfg.Context.Backend != "REDIS" {
		return contextstore.NewFileStore(cfg.Context.Path, cfg.Context.MaxAge), nil
	}
	rs, err := contextstore.NewRedisStore(cfg.Context.RedisURL, cfg.Context.RedisKey, cfg.Context.MaxAge)
	if err != nil {
		return nil, err
	}
	if err := rs.Ping(ctx); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Market context stored in Redis", "key", cfg.Context.RedisKey)
	return rs, nil
}

// initializeEngine wires every collaborator and wraps the engine with observability
func initializeEngine(ctx context.Context, cfg *store.Config, rec *metrics.Recorder, j *journal.Journal) (interfaces.Engine, error) {
	compressOldLogs(ctx, cfg, j)

	alerts, reports, err := initializeNotifiers(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ctxStore, err := initializeContextStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	eng := engine.New(cfg, engine.Deps{
		Capturer: initializeCapturer(ctx, cfg, j),
		Analyzer: initializeAnalyzer(ctx, cfg),
		Store:    ctxStore,
		Alerts:   alerts,
		Reports:  reports,
		Journal:  j,
		Metrics:  rec,
	})

	return engineobs.Wrap(eng), nil
}
