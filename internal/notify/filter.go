package notify

import (
	"context"
	"strings"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
)

// DefaultKeywords are the actionable words a tactical analysis must contain
// to be worth a chat message.
var DefaultKeywords = []string{"COMPRA", "VENTA"}

// KeywordFilter delivers only messages containing one of its keywords
// (case-insensitive substring). Everything else is logged and dropped.
type KeywordFilter struct {
	next     interfaces.Notifier
	keywords []string
}

var (
	_ interfaces.Notifier  = (*KeywordFilter)(nil)
	_ interfaces.AlertGate = (*KeywordFilter)(nil)
)

func NewKeywordFilter(next interfaces.Notifier, keywords []string) *KeywordFilter {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	upper := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			upper = append(upper, k)
		}
	}
	return &KeywordFilter{next: next, keywords: upper}
}

func (f *KeywordFilter) Admits(text string) bool {
	t := strings.ToUpper(text)
	for _, k := range f.keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

func (f *KeywordFilter) Notify(ctx context.Context, text string) error {
	if !f.Admits(text) {
		logger.Info(ctx, "Alert filtered: no actionable keyword", "keywords", f.keywords, "chars", len(text))
		return nil
	}
	return f.next.Notify(ctx, text)
}
