package interfaces

import (
	"context"

	"chart-relay-bot/internal/types"
)

type Capturer interface {
	Capture(ctx context.Context, symbol string, tf types.Timeframe) (types.Capture, error)
}
