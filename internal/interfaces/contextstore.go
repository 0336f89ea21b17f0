package interfaces

import (
	"context"

	"chart-relay-bot/internal/types"
)

// ContextStore holds the single current market context.
type ContextStore interface {
	// Save replaces the current value. A failed save leaves the previous value intact.
	Save(ctx context.Context, text string) error
	// Load returns ok=false when nothing has ever been saved.
	Load(ctx context.Context) (mc types.MarketContext, ok bool, err error)
}
