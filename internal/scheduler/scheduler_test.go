package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chart-relay-bot/internal/types"
)

type fakeEngine struct {
	mu    sync.Mutex
	modes []types.Mode
	err   error
}

func (f *fakeEngine) RunCycle(ctx context.Context, symbol string, mode types.Mode) (*types.CycleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return nil, f.err
	}
	return &types.CycleResult{Symbol: symbol, Mode: mode}, nil
}

func (f *fakeEngine) AnalyzeOnce(ctx context.Context, symbol string) (*types.CycleResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeEngine) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.modes)
}

func TestTickCadence(t *testing.T) {
	eng := &fakeEngine{}
	s := New(eng, "BTCUSDT", time.Minute, 3)

	for i := 0; i < 7; i++ {
		if _, err := s.Tick(context.Background()); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
	}

	want := []types.Mode{
		types.ModeContext, types.ModeTactical, types.ModeTactical,
		types.ModeContext, types.ModeTactical, types.ModeTactical,
		types.ModeContext,
	}
	for i, m := range want {
		if eng.modes[i] != m {
			t.Errorf("cycle %d: got %s, want %s", i, eng.modes[i], m)
		}
	}
	if s.Cycle() != 7 {
		t.Errorf("Expected counter 7, got %d", s.Cycle())
	}
}

func TestTickAdvancesOnFailure(t *testing.T) {
	eng := &fakeEngine{err: types.ErrContextMissing}
	s := New(eng, "BTCUSDT", time.Minute, 2)

	if _, err := s.Tick(context.Background()); !errors.Is(err, types.ErrContextMissing) {
		t.Fatalf("Expected error to surface, got %v", err)
	}
	if _, err := s.Tick(context.Background()); err == nil {
		t.Fatal("Expected error")
	}
	if s.Cycle() != 2 {
		t.Errorf("A failed cycle still counts, got counter %d", s.Cycle())
	}
}

func TestStartRunsFirstCycleImmediately(t *testing.T) {
	eng := &fakeEngine{}
	s := New(eng, "BTCUSDT", time.Hour, 4)
	s.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for eng.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if eng.calls() != 1 {
		t.Fatalf("Expected exactly the immediate cycle, got %d", eng.calls())
	}
	if eng.modes[0] != types.ModeContext {
		t.Errorf("Cycle 0 must be a context cycle, got %s", eng.modes[0])
	}
}

func TestDailyRegistersMaintenanceJob(t *testing.T) {
	s := New(&fakeEngine{}, "BTCUSDT", time.Minute, 4)

	var runs int
	if err := s.Daily(context.Background(), "journal-retention", func(ctx context.Context) { runs++ }); err != nil {
		t.Fatalf("Daily: %v", err)
	}
	entries := s.cron.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected one cron entry, got %d", len(entries))
	}

	entries[0].Job.Run()
	if runs != 1 {
		t.Errorf("Expected the job to run once, got %d", runs)
	}

	s.stopped.Store(true)
	entries[0].Job.Run()
	if runs != 1 {
		t.Error("A stopped scheduler must not run maintenance")
	}
}
