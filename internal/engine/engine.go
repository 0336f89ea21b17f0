package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/journal"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/metrics"
	"chart-relay-bot/internal/prompts"
	"chart-relay-bot/internal/store"
	"chart-relay-bot/internal/types"

	"github.com/google/uuid"
)

// Cycle outcomes, as journaled and exported in metrics.
const (
	OutcomeSaved          = "saved"
	OutcomeDelivered      = "delivered"
	OutcomeFiltered       = "filtered"
	OutcomeNotifyFailed   = "notify_failed"
	OutcomeContextMissing = "context_missing"
	OutcomeContextError   = "context_error"
	OutcomeCaptureFailed  = "capture_failed"
	OutcomeAnalysisFailed = "analysis_failed"
	OutcomePersistFailed  = "persist_failed"
)

// unknownSymbol is what chart alerts send when the template has no ticker.
const unknownSymbol = "UNKNOWN"

// Journal records finished cycles.
type Journal interface {
	AppendAnalysis(e journal.Entry) error
}

// Deps are the collaborators of a cycle. Alerts receives tactical signals and
// may be keyword-filtered; Reports receives error notices and single-pass
// results and must never filter. Journal and Metrics are optional.
type Deps struct {
	Capturer interfaces.Capturer
	Analyzer interfaces.Analyzer
	Store    interfaces.ContextStore
	Alerts   interfaces.Notifier
	Reports  interfaces.Notifier
	Journal  Journal
	Metrics  *metrics.Recorder
}

// Engine runs one cycle at a time: capture, analyze, then persist or notify.
type Engine struct {
	mu  sync.Mutex
	cfg *store.Config
	Deps
	now func() time.Time
}

func newEngine(cfg *store.Config, deps Deps) *Engine {
	if deps.Reports == nil {
		deps.Reports = deps.Alerts
	}
	return &Engine{cfg: cfg, Deps: deps, now: time.Now}
}

// ModeFor returns the mode of a loop cycle: context on cycles 0, every,
// 2*every and so on, tactical otherwise. every <= 1 makes every cycle a
// context cycle.
func ModeFor(cycle, every int) types.Mode {
	if every <= 1 || cycle%every == 0 {
		return types.ModeContext
	}
	return types.ModeTactical
}

// RunCycle runs a context or tactical cycle for symbol.
func (e *Engine) RunCycle(ctx context.Context, symbol string, mode types.Mode) (*types.CycleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, &types.InputError{Field: "symbol", Reason: "is empty"}
	}

	res := e.newResult(symbol, mode)
	var (
		outcome string
		err     error
	)
	switch mode {
	case types.ModeContext:
		outcome, err = e.runContext(ctx, res)
	case types.ModeTactical:
		outcome, err = e.runTactical(ctx, res)
	default:
		return nil, &types.InputError{Field: "mode", Reason: fmt.Sprintf("%q is not a loop mode", mode)}
	}
	e.finish(ctx, res, outcome, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AnalyzeOnce runs the webhook single-pass analysis: no stored context, and
// the result always goes to the report channel.
func (e *Engine) AnalyzeOnce(ctx context.Context, symbol string) (*types.CycleResult, error) {
	// Rejected before the lock: a bad alert must not wait behind a running cycle.
	symbol = strings.TrimSpace(symbol)
	if symbol == "" || strings.EqualFold(symbol, unknownSymbol) {
		e.report(ctx, missingSymbolMsg)
		return nil, &types.InputError{Field: "symbol", Reason: "is missing"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res := e.newResult(symbol, types.ModeSinglePass)
	outcome, err := e.runSinglePass(ctx, res)
	e.finish(ctx, res, outcome, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) newResult(symbol string, mode types.Mode) *types.CycleResult {
	return &types.CycleResult{
		CycleID:   uuid.NewString(),
		Symbol:    symbol,
		Mode:      mode,
		StartedAt: e.now(),
	}
}

func (e *Engine) runContext(ctx context.Context, res *types.CycleResult) (string, error) {
	set, err := e.captureAll(ctx, res.Symbol, res.Mode)
	if err != nil {
		return OutcomeCaptureFailed, err
	}
	res.Timeframes = set.Labels()

	text, err := e.Analyzer.Analyze(ctx, prompts.ContextPrompt(res.Symbol, res.Timeframes), set.Captures)
	if err != nil {
		e.report(ctx, analysisFailedMsg(res.Symbol, err))
		return OutcomeAnalysisFailed, err
	}
	res.Analysis = text

	if err := e.Store.Save(ctx, text); err != nil {
		logger.ErrorWithErr(ctx, "Failed to persist market context", err, "symbol", res.Symbol)
		e.report(ctx, persistFailedMsg(res.Symbol, err))
		return OutcomePersistFailed, err
	}
	e.Metrics.ContextSaved(e.now())

	if e.cfg.Notify.NotifyContextUpdates {
		e.report(ctx, contextUpdatedMsg(res.Symbol, text))
	}
	return OutcomeSaved, nil
}

func (e *Engine) runTactical(ctx context.Context, res *types.CycleResult) (string, error) {
	// No browser work until a context exists.
	mc, ok, err := e.Store.Load(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load market context", err, "symbol", res.Symbol)
		e.report(ctx, contextLoadFailedMsg(res.Symbol, err))
		return OutcomeContextError, err
	}
	if !ok {
		logger.Warn(ctx, "Tactical cycle skipped: market context not initialized", "symbol", res.Symbol)
		e.report(ctx, contextMissingMsg(res.Symbol))
		return OutcomeContextMissing, fmt.Errorf("%s: %w", res.Symbol, types.ErrContextMissing)
	}

	set, err := e.captureAll(ctx, res.Symbol, res.Mode)
	if err != nil {
		return OutcomeCaptureFailed, err
	}
	res.Timeframes = set.Labels()

	instruction := prompts.ExecutionPrompt(res.Symbol, res.Timeframes, mc.Text)
	text, err := e.Analyzer.Analyze(ctx, instruction, set.Captures)
	if err != nil {
		e.report(ctx, analysisFailedMsg(res.Symbol, err))
		return OutcomeAnalysisFailed, err
	}
	res.Analysis = text

	alert := alertMsg(res.Symbol, text)
	delivered := true
	if g, ok := e.Alerts.(interfaces.AlertGate); ok {
		delivered = g.Admits(alert)
	}
	if err := e.Alerts.Notify(ctx, alert); err != nil {
		logger.ErrorWithErr(ctx, "Failed to deliver alert", err, "symbol", res.Symbol)
		return OutcomeNotifyFailed, nil
	}
	res.Delivered = delivered
	e.Metrics.Alert(delivered)
	logger.Alert(ctx, res.Symbol, delivered, "cycle_id", res.CycleID)

	if delivered {
		return OutcomeDelivered, nil
	}
	return OutcomeFiltered, nil
}

func (e *Engine) runSinglePass(ctx context.Context, res *types.CycleResult) (string, error) {
	set, err := e.captureAll(ctx, res.Symbol, res.Mode)
	if err != nil {
		return OutcomeCaptureFailed, err
	}
	res.Timeframes = set.Labels()

	text, err := e.Analyzer.Analyze(ctx, prompts.SinglePassPrompt(res.Symbol, res.Timeframes), set.Captures)
	if err != nil {
		e.report(ctx, analysisFailedMsg(res.Symbol, err))
		return OutcomeAnalysisFailed, err
	}
	res.Analysis = text

	if err := e.Reports.Notify(ctx, singlePassMsg(res.Symbol, text)); err != nil {
		logger.ErrorWithErr(ctx, "Failed to deliver analysis", err, "symbol", res.Symbol)
		return OutcomeNotifyFailed, nil
	}
	res.Delivered = true
	return OutcomeDelivered, nil
}

// captureAll captures the mode's timeframes in order and stops at the first
// failure; later timeframes are never attempted.
func (e *Engine) captureAll(ctx context.Context, symbol string, mode types.Mode) (types.CaptureSet, error) {
	tfs := e.cfg.TimeframesFor(mode)
	set := types.CaptureSet{Symbol: symbol, Mode: mode, Captures: make([]types.Capture, 0, len(tfs))}

	for _, tf := range tfs {
		c, err := e.Capturer.Capture(ctx, symbol, tf)
		if err != nil {
			e.Metrics.CaptureFailed(tf.Code)
			e.report(ctx, captureFailedMsg(symbol, tf.Label))
			return set, err
		}
		set.Captures = append(set.Captures, c)
	}
	return set, nil
}

// report sends an unfiltered notice. Delivery failures are only logged.
func (e *Engine) report(ctx context.Context, text string) {
	if e.Reports == nil {
		return
	}
	if err := e.Reports.Notify(ctx, text); err != nil {
		logger.ErrorWithErr(ctx, "Failed to send notice", err)
	}
}

func (e *Engine) finish(ctx context.Context, res *types.CycleResult, outcome string, err error) {
	res.Duration = e.now().Sub(res.StartedAt)
	e.Metrics.ObserveCycle(string(res.Mode), outcome, res.Duration)

	if e.Journal != nil {
		entry := journal.Entry{
			CycleID:    res.CycleID,
			Symbol:     res.Symbol,
			Mode:       string(res.Mode),
			Timeframes: res.Timeframes,
			Outcome:    outcome,
			Delivered:  res.Delivered,
			DurationMS: res.Duration.Milliseconds(),
			Analysis:   res.Analysis,
		}
		if err != nil {
			entry.Error = err.Error()
		}
		if jerr := e.Journal.AppendAnalysis(entry); jerr != nil {
			logger.Warn(ctx, "Failed to journal cycle", "cycle_id", res.CycleID, "error", jerr)
		}
	}

	logger.Cycle(ctx, res.Symbol, string(res.Mode), outcome,
		"cycle_id", res.CycleID,
		"timeframes", res.Timeframes,
		"duration_ms", res.Duration.Milliseconds(),
	)
}
