package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf16"
	"unicode/utf8"

	"chart-relay-bot/internal/types"
)

type fakeBotAPI struct {
	mu        sync.Mutex
	messages  []map[string]string
	rejectMD  bool
	failSends bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"relay","username":"relay_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.messages = append(f.messages, map[string]string{
			"chat_id":    r.Form.Get("chat_id"),
			"text":       r.Form.Get("text"),
			"parse_mode": r.Form.Get("parse_mode"),
		})
		f.mu.Unlock()
		if f.failSends {
			fmt.Fprint(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
			return
		}
		if f.rejectMD && r.Form.Get("parse_mode") != "" {
			fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: Can't find end of the entity starting at byte offset 3"}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestNotifier(t *testing.T, api *fakeBotAPI) *Notifier {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	n, err := New("123:abc", 42, "Markdown", srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n
}

func TestNotifySendsMarkdownMessage(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)

	if err := n.Notify(context.Background(), "*BTCUSDT*\nCOMPRA"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(api.messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(api.messages))
	}
	m := api.messages[0]
	if m["chat_id"] != "42" || m["parse_mode"] != "Markdown" || m["text"] != "*BTCUSDT*\nCOMPRA" {
		t.Errorf("Unexpected message %+v", m)
	}
}

func TestNotifyFallsBackToPlainText(t *testing.T) {
	api := &fakeBotAPI{rejectMD: true}
	n := newTestNotifier(t, api)

	if err := n.Notify(context.Background(), "VENTA *sin cerrar"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(api.messages) != 2 {
		t.Fatalf("Expected markdown attempt plus plain resend, got %d", len(api.messages))
	}
	if api.messages[1]["parse_mode"] != "" {
		t.Errorf("Resend should be plain text, got parse_mode %q", api.messages[1]["parse_mode"])
	}
}

func TestNotifyFailureIsNotifyError(t *testing.T) {
	api := &fakeBotAPI{failSends: true}
	n := newTestNotifier(t, api)

	err := n.Notify(context.Background(), "COMPRA")
	if !errors.Is(err, types.ErrNotify) {
		t.Fatalf("Expected ErrNotify, got %v", err)
	}
	if len(api.messages) != 1 {
		t.Errorf("Non-markup errors must not be retried, got %d sends", len(api.messages))
	}
}

func TestSplit(t *testing.T) {
	if got := Split("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("Split short = %v", got)
	}

	text := "aaaa\nbbbb\ncccc\n"
	got := Split(text, 10)
	if strings.Join(got, "") != text {
		t.Errorf("Split must preserve text, got %q", got)
	}
	for _, c := range got {
		if len(c) > 10 {
			t.Errorf("Chunk over limit: %q", c)
		}
	}
	if got[0] != "aaaa\nbbbb\n" {
		t.Errorf("Expected split on line boundary, got %q", got[0])
	}

	long := strings.Repeat("x", 25)
	got = Split(long, 10)
	if len(got) != 3 || strings.Join(got, "") != long {
		t.Errorf("Expected hard split of long line, got %q", got)
	}
}

func TestSplitCountsUTF16Units(t *testing.T) {
	header := "📊 *SEÑAL INTRADÍA BTCUSDT*\n\n"
	text := header + strings.Repeat("📈", 3000)

	got := Split(text, MaxMessageLen)
	if len(got) < 2 {
		t.Fatalf("Expected emoji-heavy text to be split, got %d chunk", len(got))
	}
	if strings.Join(got, "") != text {
		t.Error("Split must preserve text")
	}
	for i, c := range got {
		if n := len(utf16.Encode([]rune(c))); n > MaxMessageLen {
			t.Errorf("Chunk %d is %d UTF-16 units", i, n)
		}
		if !utf8.ValidString(c) {
			t.Errorf("Chunk %d cuts a rune", i)
		}
	}
	if got[0] != header {
		t.Errorf("Expected the header line on its own, got %q", got[0])
	}

	// two emoji fit in four units, not in three
	if got := Split("📈📈", 4); len(got) != 1 {
		t.Errorf("Expected one chunk, got %q", got)
	}
	if got := Split("📈📈", 3); len(got) != 2 || got[0] != "📈" {
		t.Errorf("Expected split between emoji, got %q", got)
	}
}
