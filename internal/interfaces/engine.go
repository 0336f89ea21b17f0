package interfaces

import (
	"context"

	"chart-relay-bot/internal/types"
)

type Engine interface {
	RunCycle(ctx context.Context, symbol string, mode types.Mode) (*types.CycleResult, error)
	AnalyzeOnce(ctx context.Context, symbol string) (*types.CycleResult, error)
}
