package capture

import (
	"context"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"
)

// Archive stores a copy of a captured image.
type Archive interface {
	SaveCapture(symbol string, c types.Capture) (string, error)
}

type archivingCapturer struct {
	next    interfaces.Capturer
	archive Archive
}

var _ interfaces.Capturer = (*archivingCapturer)(nil)

// WithArchive copies every successful capture into archive. Archive failures
// are logged and never fail the capture.
func WithArchive(next interfaces.Capturer, archive Archive) interfaces.Capturer {
	return &archivingCapturer{next: next, archive: archive}
}

func (a *archivingCapturer) Capture(ctx context.Context, symbol string, tf types.Timeframe) (types.Capture, error) {
	c, err := a.next.Capture(ctx, symbol, tf)
	if err != nil {
		return c, err
	}
	p, aerr := a.archive.SaveCapture(symbol, c)
	if aerr != nil {
		logger.Warn(ctx, "Failed to archive capture", "symbol", symbol, "timeframe", tf.Code, "error", aerr)
		return c, nil
	}
	logger.Debug(ctx, "Capture archived", "symbol", symbol, "timeframe", tf.Code, "path", p)
	return c, nil
}
