package notifyobs

import (
	"context"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
)

type observableNotifier struct {
	notifier interfaces.Notifier
	channel  string
}

var _ interfaces.Notifier = (*observableNotifier)(nil)

func Wrap(notifier interfaces.Notifier, channel string) interfaces.Notifier {
	return &observableNotifier{
		notifier: notifier,
		channel:  channel,
	}
}

func (on *observableNotifier) Notify(ctx context.Context, text string) error {
	op := logger.StartOperation(ctx, "notify.Notify", "channel", on.channel, "chars", len(text))
	ctx = op.GetContext()

	if err := on.notifier.Notify(ctx, text); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Notification failed", err,
			"channel", on.channel,
			"chars", len(text),
			"duration_ms", op.Elapsed().Milliseconds(),
		)
		op.EndWithError(err)
		return err
	}

	logger.DebugSkip(ctx, 1, "Notification sent",
		"channel", on.channel,
		"chars", len(text),
		"duration_ms", op.Elapsed().Milliseconds(),
	)
	op.End()
	return nil
}
