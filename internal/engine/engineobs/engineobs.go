package engineobs

import (
	"context"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) RunCycle(ctx context.Context, symbol string, mode types.Mode) (*types.CycleResult, error) {
	op := logger.StartOperation(ctx, "engine.RunCycle", "symbol", symbol, "mode", string(mode))
	ctx = op.GetContext()

	logger.InfoSkip(ctx, 1, "Starting cycle",
		"symbol", symbol,
		"mode", mode,
	)

	result, err := oe.engine.RunCycle(ctx, symbol, mode)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Cycle failed", err,
			"symbol", symbol,
			"mode", mode,
			"duration_ms", op.Elapsed().Milliseconds(),
		)
		op.EndWithError(err)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Cycle completed",
		"symbol", symbol,
		"mode", mode,
		"cycle_id", result.CycleID,
		"delivered", result.Delivered,
		"duration_ms", op.Elapsed().Milliseconds(),
	)
	op.End("cycle_id", result.CycleID, "delivered", result.Delivered)

	return result, nil
}

func (oe *observableEngine) AnalyzeOnce(ctx context.Context, symbol string) (*types.CycleResult, error) {
	op := logger.StartOperation(ctx, "engine.AnalyzeOnce", "symbol", symbol)
	ctx = op.GetContext()

	logger.InfoSkip(ctx, 1, "Starting single-pass analysis",
		"symbol", symbol,
	)

	result, err := oe.engine.AnalyzeOnce(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Single-pass analysis failed", err,
			"symbol", symbol,
			"duration_ms", op.Elapsed().Milliseconds(),
		)
		op.EndWithError(err)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Single-pass analysis completed",
		"symbol", symbol,
		"cycle_id", result.CycleID,
		"delivered", result.Delivered,
		"duration_ms", op.Elapsed().Milliseconds(),
	)
	op.End("cycle_id", result.CycleID, "delivered", result.Delivered)

	return result, nil
}
