package interfaces

import "context"

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// AlertGate is implemented by notifiers that may drop a message. Admits
// reports whether Notify would deliver text.
type AlertGate interface {
	Admits(text string) bool
}
