package captureobs

import (
	"context"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"
)

type observableCapturer struct {
	capturer interfaces.Capturer
}

var _ interfaces.Capturer = (*observableCapturer)(nil)

func Wrap(capturer interfaces.Capturer) interfaces.Capturer {
	return &observableCapturer{
		capturer: capturer,
	}
}

func (oc *observableCapturer) Capture(ctx context.Context, symbol string, tf types.Timeframe) (types.Capture, error) {
	op := logger.StartOperation(ctx, "capture.Capture", "symbol", symbol, "timeframe", tf.Code)
	ctx = op.GetContext()

	c, err := oc.capturer.Capture(ctx, symbol, tf)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Chart capture failed", err,
			"symbol", symbol,
			"timeframe", tf.Code,
			"duration_ms", op.Elapsed().Milliseconds(),
		)
		op.EndWithError(err)
		return c, err
	}

	logger.InfoSkip(ctx, 1, "Chart captured",
		"symbol", symbol,
		"timeframe", tf.Code,
		"bytes", len(c.PNG),
		"duration_ms", op.Elapsed().Milliseconds(),
	)
	op.End("bytes", len(c.PNG))

	return c, nil
}
