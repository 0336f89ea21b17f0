package noop

import (
	"context"

	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"
)

// NoopAnalyzer is used when no model provider is configured. It never calls
// out and always answers ESPERA, so a filtered alert channel stays quiet.
type NoopAnalyzer struct{}

func NewNoopAnalyzer() *NoopAnalyzer {
	return &NoopAnalyzer{}
}

func (a *NoopAnalyzer) Analyze(ctx context.Context, instruction string, captures []types.Capture) (string, error) {
	logger.Debug(ctx, "Noop analyzer called - always returns ESPERA", "images", len(captures))
	return "ESPERA\n- Analizador deshabilitado (proveedor NOOP).", nil
}
