package llmobs

import (
	"context"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"
)

// observableAnalyzer wraps an Analyzer with observability (logging & tracing)
type observableAnalyzer struct {
	analyzer interfaces.Analyzer
	provider string
}

// Compile-time interface check
var _ interfaces.Analyzer = (*observableAnalyzer)(nil)

// Wrap wraps an analyzer with observability middleware
func Wrap(analyzer interfaces.Analyzer, provider string) interfaces.Analyzer {
	return &observableAnalyzer{
		analyzer: analyzer,
		provider: provider,
	}
}

// Analyze forwards to the wrapped analyzer with logging and a span
func (oa *observableAnalyzer) Analyze(ctx context.Context, instruction string, captures []types.Capture) (string, error) {
	op := logger.StartOperation(ctx, "llm.Analyze", "provider", oa.provider, "images", len(captures))
	ctx = op.GetContext()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting chart analysis",
		"provider", oa.provider,
		"images", len(captures),
		"instruction_chars", len(instruction),
	)

	text, err := oa.analyzer.Analyze(ctx, instruction, captures)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Chart analysis failed", err,
			"provider", oa.provider,
			"duration_ms", op.Elapsed().Milliseconds(),
		)
		op.EndWithError(err)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Chart analysis received",
		"provider", oa.provider,
		"chars", len(text),
		"duration_ms", op.Elapsed().Milliseconds(),
	)
	op.End("chars", len(text))

	return text, nil
}
