package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chart-relay-bot/internal/types"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234")
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	setSecrets(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Symbol != "BTCUSDT" {
		t.Errorf("Expected default symbol, got %s", cfg.Symbol)
	}
	if cfg.Loop.Interval != 5*time.Minute || cfg.Loop.ContextEvery != 24 {
		t.Errorf("Unexpected loop defaults %+v", cfg.Loop)
	}
	if cfg.Chart.SettleDelay != 5*time.Second || cfg.Chart.NavigationTimeout != 60*time.Second {
		t.Errorf("Unexpected chart defaults %+v", cfg.Chart)
	}
	if cfg.Secrets.TelegramChatID != -1001234 {
		t.Errorf("Chat id not read, got %d", cfg.Secrets.TelegramChatID)
	}
	if got := cfg.TimeframesFor(types.ModeTactical); len(got) != 3 || got[0].Code != "60" {
		t.Errorf("Unexpected tactical timeframes %+v", got)
	}
	if got := cfg.TimeframesFor(types.ModeSinglePass); got[0].Code != "W" || got[2].Code != "60" {
		t.Errorf("Unexpected single-pass timeframes %+v", got)
	}
	if strings.Join(cfg.Notify.Keywords, ",") != "COMPRA,VENTA" {
		t.Errorf("Unexpected keywords %v", cfg.Notify.Keywords)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	setSecrets(t)
	t.Setenv("SYMBOL", "ETHUSDT")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `symbol: SOLUSDT
loop:
  interval: 15m
  context_every: 4
timeframes:
  tactical:
    - {code: "30", label: "30 Minutos"}
notify:
  keywords: [LONG, SHORT]
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Symbol != "ETHUSDT" {
		t.Errorf("Environment must override file, got %s", cfg.Symbol)
	}
	if cfg.Loop.Interval != 15*time.Minute || cfg.Loop.ContextEvery != 4 {
		t.Errorf("Unexpected loop %+v", cfg.Loop)
	}
	if len(cfg.Timeframes.Tactical) != 1 || cfg.Timeframes.Tactical[0].Label != "30 Minutos" {
		t.Errorf("Unexpected tactical %+v", cfg.Timeframes.Tactical)
	}
	if len(cfg.Timeframes.Context) != 3 {
		t.Errorf("Context timeframes should keep defaults, got %+v", cfg.Timeframes.Context)
	}
	if strings.Join(cfg.Notify.Keywords, ",") != "LONG,SHORT" {
		t.Errorf("Unexpected keywords %v", cfg.Notify.Keywords)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"empty symbol", func(c *Config) { c.Symbol = " " }, "symbol"},
		{"template without interval", func(c *Config) { c.Chart.URLTemplate = "https://x/?s={symbol}" }, "url_template"},
		{"missing openai key", func(c *Config) { c.Secrets.OpenAIKey = "" }, "OPENAI_API_KEY"},
		{"missing claude key", func(c *Config) { c.LLM.Provider = "CLAUDE" }, "CLAUDE_API_KEY"},
		{"noop needs no key", func(c *Config) { c.LLM.Provider = "NOOP"; c.Secrets.OpenAIKey = "" }, ""},
		{"missing chat id", func(c *Config) { c.Secrets.TelegramChatID = 0 }, "TELEGRAM_CHAT_ID"},
		{"dry run needs no telegram", func(c *Config) { c.Mode = "DRY_RUN"; c.Secrets.TelegramToken = "" }, ""},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "GEMINI" }, "Provider"},
		{"zero context cadence", func(c *Config) { c.Loop.ContextEvery = 0 }, "ContextEvery"},
		{"tiny interval", func(c *Config) { c.Loop.Interval = time.Millisecond }, "interval"},
		{"no keywords", func(c *Config) { c.Notify.Keywords = nil }, "keywords"},
		{"redis without url", func(c *Config) { c.Context.Backend = "REDIS" }, "REDIS_URL"},
		{"claude with openai model", func(c *Config) { c.LLM.Provider = "CLAUDE"; c.Secrets.ClaudeKey = "ck"; c.LLM.Model = "gpt-4o" }, "OpenAI model"},
		{"claude with default model", func(c *Config) { c.LLM.Provider = "CLAUDE"; c.Secrets.ClaudeKey = "ck" }, ""},
		{"claude gateway alias", func(c *Config) { c.LLM.Provider = "CLAUDE"; c.Secrets.ClaudeKey = "ck"; c.LLM.Model = "sonnet-eu" }, ""},
		{"openai with claude model", func(c *Config) { c.LLM.Model = "claude-sonnet-4-5" }, "Claude model"},
		{"redis with url", func(c *Config) { c.Context.Backend = "REDIS"; c.Context.RedisURL = "redis://localhost:6379/0" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Default()
			if err != nil {
				t.Fatal(err)
			}
			c.Secrets = Secrets{OpenAIKey: "sk", TelegramToken: "t", TelegramChatID: 1}
			tt.mutate(c)

			err = c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	setSecrets(t)
	t.Setenv("LOOP_INTERVAL", "soon")

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("Expected error for invalid LOOP_INTERVAL")
	}
}

func TestCycleBudgetCoversWorstCase(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	// 3 captures x (15s start + 60s navigation + 2x20s selector + 5s settle) + 90s model
	if got := c.CycleBudget(); got != 450*time.Second {
		t.Errorf("Expected 450s, got %s", got)
	}
	if got := c.WebhookWriteTimeout(); got != 510*time.Second {
		t.Errorf("Expected derived write timeout 510s, got %s", got)
	}

	c.Timeframes.Tactical = append(c.Timeframes.Tactical, types.Timeframe{Code: "1", Label: "1 Minuto"})
	if got := c.CycleBudget(); got != 570*time.Second {
		t.Errorf("Expected the largest timeframe set to drive the budget, got %s", got)
	}

	c.Server.WriteTimeout = 2 * time.Minute
	if got := c.WebhookWriteTimeout(); got != 2*time.Minute {
		t.Errorf("Explicit write_timeout must win, got %s", got)
	}
}
