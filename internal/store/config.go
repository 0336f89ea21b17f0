package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chart-relay-bot/internal/types"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Symbol string `yaml:"symbol" default:"BTCUSDT"`

	// DRY_RUN logs notifications instead of sending them.
	Mode string `yaml:"mode" default:"LIVE" validate:"oneof=LIVE DRY_RUN"`

	Chart struct {
		URLTemplate       string        `yaml:"url_template" default:"https://www.tradingview.com/chart/?symbol={symbol}&interval={interval}" validate:"required"`
		Selector          string        `yaml:"selector" default:".chart-container" validate:"required"`
		ProfileDir        string        `yaml:"profile_dir"`
		Headless          bool          `yaml:"headless" default:"true"`
		ViewportWidth     int           `yaml:"viewport_width" default:"1280" validate:"gt=0"`
		ViewportHeight    int           `yaml:"viewport_height" default:"720" validate:"gt=0"`
		NavigationTimeout time.Duration `yaml:"navigation_timeout" default:"60s"`
		SelectorTimeout   time.Duration `yaml:"selector_timeout" default:"20s"`
		SettleDelay       time.Duration `yaml:"settle_delay" default:"5s"`
		ExecPath          string        `yaml:"exec_path"`
	} `yaml:"chart"`

	Timeframes struct {
		Context  []types.Timeframe `yaml:"context" default:"[{\"code\":\"W\",\"label\":\"Semanal\"},{\"code\":\"D\",\"label\":\"Diario\"},{\"code\":\"240\",\"label\":\"4 Horas\"}]" validate:"min=1,dive"`
		Tactical []types.Timeframe `yaml:"tactical" default:"[{\"code\":\"60\",\"label\":\"1 Hora\"},{\"code\":\"15\",\"label\":\"15 Minutos\"},{\"code\":\"5\",\"label\":\"5 Minutos\"}]" validate:"min=1,dive"`
		Single   []types.Timeframe `yaml:"single" default:"[{\"code\":\"W\",\"label\":\"Semanal\"},{\"code\":\"D\",\"label\":\"Diario\"},{\"code\":\"60\",\"label\":\"1 Hora\"}]" validate:"min=1,dive"`
	} `yaml:"timeframes"`

	Loop struct {
		Interval time.Duration `yaml:"interval" default:"5m"`

		// ContextEvery is the number of cycles between context refreshes.
		ContextEvery int `yaml:"context_every" default:"24" validate:"gte=1"`
	} `yaml:"loop"`

	Context struct {
		Backend  string        `yaml:"backend" default:"FILE" validate:"oneof=FILE REDIS"`
		Path     string        `yaml:"path" default:"data/market_context.txt"`
		RedisURL string        `yaml:"redis_url"`
		RedisKey string        `yaml:"redis_key" default:"chartrelay:market_context"`
		MaxAge   time.Duration `yaml:"max_age"`
	} `yaml:"context"`

	LLM struct {
		Provider string `yaml:"provider" default:"OPENAI" validate:"oneof=OPENAI CLAUDE NOOP"`

		// Model empty means the provider's default model.
		Model       string        `yaml:"model"`
		MaxTokens   int           `yaml:"max_tokens" default:"1000" validate:"gt=0"`
		Temperature float32       `yaml:"temperature" default:"0.2"`
		BaseURL     string        `yaml:"base_url"`
		Timeout     time.Duration `yaml:"timeout" default:"90s"`
		ImageDetail string        `yaml:"image_detail" default:"auto" validate:"oneof=auto low high"`
		System      string        `yaml:"system"`
	} `yaml:"llm"`

	Notify struct {
		Provider    string `yaml:"provider" default:"TELEGRAM" validate:"oneof=TELEGRAM LOG"`
		ParseMode   string `yaml:"parse_mode" default:"Markdown"`
		APIEndpoint string `yaml:"api_endpoint"`

		// FilterAlerts drops tactical alerts that carry none of Keywords.
		FilterAlerts         bool     `yaml:"filter_alerts" default:"true"`
		Keywords             []string `yaml:"keywords" default:"[\"COMPRA\",\"VENTA\"]"`
		NotifyContextUpdates bool     `yaml:"notify_context_updates"`
	} `yaml:"notify"`

	Server struct {
		Port            int           `yaml:"port" default:"10000" validate:"gt=0,lte=65535"`
		Path            string        `yaml:"path" default:"/webhook"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout"` // 0: derived from CycleBudget
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`

		// RateLimit is webhook requests per second per client IP; 0 disables.
		RateLimit float64 `yaml:"rate_limit" default:"0.5" validate:"gte=0"`
		RateBurst int     `yaml:"rate_burst" default:"3" validate:"gte=0"`
	} `yaml:"server"`

	Journal struct {
		Dir             string `yaml:"dir" default:"logs"`
		ArchiveCaptures bool   `yaml:"archive_captures" default:"true"`
		RetentionDays   int    `yaml:"retention_days"`
	} `yaml:"journal"`

	// Secrets are read from the environment only.
	Secrets Secrets `yaml:"-"`
}

type Secrets struct {
	OpenAIKey      string
	ClaudeKey      string
	TelegramToken  string
	TelegramChatID int64
}

var validate = validator.New()

// Default returns a configuration populated from struct defaults only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// LoadConfig reads path (a missing file is allowed), applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// environment-only deployment
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("CHART_URL_TEMPLATE"); v != "" {
		c.Chart.URLTemplate = v
	}
	if v := os.Getenv("CHART_PROFILE_DIR"); v != "" {
		c.Chart.ProfileDir = v
	}
	if v := os.Getenv("CONTEXT_PATH"); v != "" {
		c.Context.Path = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Context.RedisURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LOOP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LOOP_INTERVAL %q: %w", v, err)
		}
		c.Loop.Interval = d
	}
	if v := os.Getenv("CONTEXT_EVERY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONTEXT_EVERY %q: %w", v, err)
		}
		c.Loop.ContextEvery = n
	}
	if v := os.Getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = n
	}

	c.Secrets.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.Secrets.ClaudeKey = os.Getenv("CLAUDE_API_KEY")
	c.Secrets.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Secrets.TelegramChatID = id
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return errors.New("symbol cannot be empty")
	}
	if !strings.Contains(c.Chart.URLTemplate, "{symbol}") || !strings.Contains(c.Chart.URLTemplate, "{interval}") {
		return fmt.Errorf("chart.url_template must contain {symbol} and {interval}, got %q", c.Chart.URLTemplate)
	}
	switch c.Context.Backend {
	case "FILE":
		if c.Context.Path == "" {
			return errors.New("context.path is required for the FILE backend")
		}
	case "REDIS":
		if c.Context.RedisURL == "" {
			return errors.New("REDIS_URL is required for the REDIS context backend")
		}
	}
	if c.Loop.Interval < time.Second {
		return fmt.Errorf("loop.interval must be at least 1s, got %s", c.Loop.Interval)
	}
	if c.LLM.Provider == "OPENAI" && c.Secrets.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY is required when llm.provider is OPENAI")
	}
	if c.LLM.Provider == "CLAUDE" && c.Secrets.ClaudeKey == "" {
		return errors.New("CLAUDE_API_KEY is required when llm.provider is CLAUDE")
	}
	if err := c.checkModel(); err != nil {
		return err
	}
	if c.Notify.Provider == "TELEGRAM" && c.Mode != "DRY_RUN" {
		if c.Secrets.TelegramToken == "" {
			return errors.New("TELEGRAM_BOT_TOKEN is required when notify.provider is TELEGRAM")
		}
		if c.Secrets.TelegramChatID == 0 {
			return errors.New("TELEGRAM_CHAT_ID is required when notify.provider is TELEGRAM")
		}
	}
	if c.Notify.FilterAlerts && len(c.Notify.Keywords) == 0 {
		return errors.New("notify.keywords cannot be empty when notify.filter_alerts is set")
	}
	return nil
}

// browserStartSlack covers launching Chrome, which no step timeout bounds.
const browserStartSlack = 15 * time.Second

// CycleBudget is the longest one cycle can take under the configured
// timeouts: every capture of the largest timeframe set running into its
// navigation, selector and screenshot limits, then the model call into its own.
func (c *Config) CycleBudget() time.Duration {
	n := max(len(c.Timeframes.Context), len(c.Timeframes.Tactical), len(c.Timeframes.Single))
	perCapture := browserStartSlack + c.Chart.NavigationTimeout + 2*c.Chart.SelectorTimeout + c.Chart.SettleDelay
	return time.Duration(n)*perCapture + c.LLM.Timeout
}

// WebhookWriteTimeout is server.write_timeout when set, otherwise one cycle
// budget plus a minute for the notification and the response.
func (c *Config) WebhookWriteTimeout() time.Duration {
	if c.Server.WriteTimeout > 0 {
		return c.Server.WriteTimeout
	}
	return c.CycleBudget() + time.Minute
}

// checkModel rejects a model that belongs to the other vendor. Gateway
// aliases with any other name are passed through untouched.
func (c *Config) checkModel() error {
	m := strings.ToLower(c.LLM.Model)
	switch {
	case c.LLM.Provider == "CLAUDE" && (strings.HasPrefix(m, "gpt-") || strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3")):
		return fmt.Errorf("llm.model %q is an OpenAI model but llm.provider is CLAUDE", c.LLM.Model)
	case c.LLM.Provider == "OPENAI" && strings.HasPrefix(m, "claude"):
		return fmt.Errorf("llm.model %q is a Claude model but llm.provider is OPENAI", c.LLM.Model)
	}
	return nil
}

// TimeframesFor returns the configured timeframe set for a mode.
func (c *Config) TimeframesFor(mode types.Mode) []types.Timeframe {
	switch mode {
	case types.ModeContext:
		return c.Timeframes.Context
	case types.ModeTactical:
		return c.Timeframes.Tactical
	default:
		return c.Timeframes.Single
	}
}
