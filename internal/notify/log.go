package notify

import (
	"context"

	"chart-relay-bot/internal/logger"
)

// LogNotifier writes messages to the structured log instead of a chat.
// Used for DRY_RUN and notify.provider=LOG.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Notify(ctx context.Context, text string) error {
	logger.Info(ctx, "Notification", "channel", "log", "text", text)
	return nil
}
