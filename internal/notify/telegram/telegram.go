package telegram

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf16"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	channel = "telegram"

	// MaxMessageLen is Telegram's limit for a single text message.
	MaxMessageLen = 4096
)

// Notifier sends messages to a single Telegram chat.
type Notifier struct {
	bot       *tgbotapi.BotAPI
	chatID    int64
	parseMode string
}

var _ interfaces.Notifier = (*Notifier)(nil)

// New connects to the Bot API. apiEndpoint is optional and uses the
// tgbotapi format "https://host/bot%s/%s".
func New(token string, chatID int64, parseMode, apiEndpoint string) (*Notifier, error) {
	var (
		bot *tgbotapi.BotAPI
		err error
	)
	if apiEndpoint != "" {
		bot, err = tgbotapi.NewBotAPIWithAPIEndpoint(token, apiEndpoint)
	} else {
		bot, err = tgbotapi.NewBotAPI(token)
	}
	if err != nil {
		return nil, &types.NotifyError{Channel: channel, Err: fmt.Errorf("connect: %w", err)}
	}
	return &Notifier{bot: bot, chatID: chatID, parseMode: parseMode}, nil
}

func (n *Notifier) Notify(ctx context.Context, text string) error {
	for i, chunk := range Split(text, MaxMessageLen) {
		if err := n.send(ctx, chunk); err != nil {
			return &types.NotifyError{Channel: channel, Err: fmt.Errorf("chunk %d: %w", i+1, err)}
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = n.parseMode
	msg.DisableWebPagePreview = true

	_, err := n.bot.Send(msg)
	if err == nil || msg.ParseMode == "" || !isEntityError(err) {
		return err
	}

	// Model output often has unbalanced * or _; resend as plain text.
	logger.Warn(ctx, "Telegram rejected markup, resending as plain text", "error", err)
	msg.ParseMode = ""
	_, err = n.bot.Send(msg)
	return err
}

func isEntityError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}

// Split breaks text into chunks of at most limit UTF-16 code units, the unit
// Telegram counts message length in, preferring line boundaries.
func Split(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf16Len(line)
		if curLen+n > limit {
			flush()
		}
		if n <= limit {
			cur.WriteString(line)
			curLen += n
			continue
		}
		// a single line over the limit is cut between runes
		for _, r := range line {
			w := utf16.RuneLen(r)
			if w < 0 {
				w = 1
			}
			if curLen+w > limit {
				flush()
			}
			cur.WriteRune(r)
			curLen += w
		}
	}
	flush()
	return chunks
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			n++
		}
	}
	return n
}
