package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/journal"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/metrics"
	"chart-relay-bot/internal/scheduler"
	"chart-relay-bot/internal/server"
	"chart-relay-bot/internal/store"
	"chart-relay-bot/internal/trace"
	"chart-relay-bot/internal/types"
)

const usage = `usage: bot [contexto|intradia|serve]

  (no argument)  run the context-relay loop
  contexto       run one context cycle and exit
  intradia       run one tactical cycle and exit
  serve          serve the single-pass webhook`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
	}()

	command := ""
	if len(args) > 0 {
		command = args[0]
	}
	if command == "-h" || command == "--help" || command == "help" {
		fmt.Println(usage)
		return 0
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return 1
	}

	rec := metrics.New()
	j := journal.New(cfg.Journal.Dir)
	eng, err := initializeEngine(ctx, cfg, rec, j)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize", err)
		return 1
	}

	switch command {
	case "":
		return runLoop(ctx, cfg, eng, j)
	case "serve":
		return runServer(ctx, cfg, eng, rec)
	}

	mode, err := types.ParseMode(command)
	if err != nil {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
	return runOnce(ctx, cfg, eng, mode)
}

func runOnce(ctx context.Context, cfg *store.Config, eng interfaces.Engine, mode types.Mode) int {
	res, err := eng.RunCycle(ctx, cfg.Symbol, mode)
	if err != nil {
		if errors.Is(err, types.ErrContextMissing) {
			fmt.Fprintln(os.Stderr, "market context not initialized: run `bot contexto` first")
		}
		return 1
	}
	fmt.Println(res.Analysis)
	return 0
}

func runLoop(ctx context.Context, cfg *store.Config, eng interfaces.Engine, j *journal.Journal) int {
	s := scheduler.New(eng, cfg.Symbol, cfg.Loop.Interval, cfg.Loop.ContextEvery)
	// Cycles outlive the signal so Stop can let the running one finish.
	loopCtx := context.WithoutCancel(ctx)
	if err := s.Daily(loopCtx, "journal-retention", func(ctx context.Context) {
		compressOldLogs(ctx, cfg, j)
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to schedule journal retention", err)
		return 1
	}
	s.Start(loopCtx)

	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down...")

	// Long enough for the running cycle to hit its own timeouts.
	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.CycleBudget()+time.Minute)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		logger.Warn(context.Background(), "Scheduler did not stop cleanly", "error", err)
		return 1
	}
	return 0
}

func runServer(ctx context.Context, cfg *store.Config, eng interfaces.Engine, rec *metrics.Recorder) int {
	srv := server.New(cfg, eng, rec)
	if err := srv.Run(ctx); err != nil {
		logger.ErrorWithErr(context.Background(), "Webhook server failed", err)
		return 1
	}
	return 0
}
