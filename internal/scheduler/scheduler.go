package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"chart-relay-bot/internal/engine"
	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the context-relay loop: one cycle per interval, context
// mode every `every` cycles starting with cycle 0. Cycles never overlap; a
// tick that fires while a cycle is still running is skipped.
type Scheduler struct {
	cron     *cron.Cron
	engine   interfaces.Engine
	symbol   string
	interval time.Duration
	every    int

	mu    sync.Mutex
	cycle int

	runMu   sync.Mutex
	stopped atomic.Bool
}

func New(eng interfaces.Engine, symbol string, interval time.Duration, every int) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cronLogger{})),
		engine:   eng,
		symbol:   symbol,
		interval: interval,
		every:    every,
	}
}

// Cycle returns the index of the next cycle.
func (s *Scheduler) Cycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle
}

// Tick runs exactly one cycle and advances the counter, whatever the outcome.
func (s *Scheduler) Tick(ctx context.Context) (*types.CycleResult, error) {
	s.mu.Lock()
	cycle := s.cycle
	s.cycle++
	s.mu.Unlock()

	mode := engine.ModeFor(cycle, s.every)
	logger.Info(ctx, "Cycle triggered", "cycle", cycle, "mode", mode, "symbol", s.symbol)

	res, err := s.engine.RunCycle(ctx, s.symbol, mode)
	if err != nil {
		logger.Warn(ctx, "Cycle aborted, waiting for next tick", "cycle", cycle, "mode", mode, "error", err)
		return nil, err
	}
	return res, nil
}

// Start runs cycle 0 immediately and then one cycle per interval.
func (s *Scheduler) Start(ctx context.Context) {
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{})).Then(cron.FuncJob(func() {
		s.runMu.Lock()
		defer s.runMu.Unlock()
		if s.stopped.Load() {
			return
		}
		_, _ = s.Tick(ctx)
	}))

	s.cron.Schedule(cron.Every(s.interval), job)
	s.cron.Start()
	logger.Info(ctx, "Scheduler started", "symbol", s.symbol, "interval", s.interval.String(), "context_every", s.every)

	go job.Run()
}

// Daily runs fn at midnight, next to the cycles, until Stop.
func (s *Scheduler) Daily(ctx context.Context, name string, fn func(context.Context)) error {
	_, err := s.cron.AddFunc("@daily", func() {
		if s.stopped.Load() {
			return
		}
		logger.Info(ctx, "Maintenance job started", "job", name)
		fn(ctx)
	})
	return err
}

// Stop prevents new cycles and waits for the running one, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopped.Store(true)

	done := make(chan struct{})
	go func() {
		<-s.cron.Stop().Done()
		s.runMu.Lock()
		s.runMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(ctx, "Scheduler stopped", "cycles", s.Cycle())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's internal messages to the structured logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.ErrorWithErr(context.Background(), "cron: "+msg, err, keysAndValues...)
}
