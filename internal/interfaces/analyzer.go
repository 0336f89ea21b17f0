package interfaces

import (
	"context"

	"chart-relay-bot/internal/types"
)

// Analyzer sends an instruction plus ordered chart images to a vision model.
// The image order must match the timeframe order named in the instruction.
type Analyzer interface {
	Analyze(ctx context.Context, instruction string, captures []types.Capture) (string, error)
}
