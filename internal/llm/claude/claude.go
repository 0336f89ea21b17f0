package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/prompts"
	"chart-relay-bot/internal/store"
	"chart-relay-bot/internal/trace"
	"chart-relay-bot/internal/types"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const provider = "claude"

// DefaultModel is used when llm.model is empty.
const DefaultModel = anthropic.ModelClaudeSonnet4_5

// VisionAnalyzer implements the Analyzer interface using the Anthropic Messages API
type VisionAnalyzer struct {
	client      anthropic.Client
	hasKey      bool
	model       anthropic.Model
	maxTokens   int64
	temperature float64
	system      string
}

var _ interfaces.Analyzer = (*VisionAnalyzer)(nil)

// NewVisionAnalyzer creates a Claude-based analyzer. llm.base_url replaces the
// API root (proxies, gateways). The configured model is sent as is.
func NewVisionAnalyzer(cfg *store.Config) *VisionAnalyzer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Secrets.ClaudeKey),
		// a failed call fails the cycle; the next tick is the retry
		option.WithMaxRetries(0),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.LLM.Timeout))
	}

	model := anthropic.Model(cfg.LLM.Model)
	if model == "" {
		model = DefaultModel
	}
	system := cfg.LLM.System
	if system == "" {
		system = prompts.SystemPrompt()
	}

	return &VisionAnalyzer{
		client:      anthropic.NewClient(opts...),
		hasKey:      cfg.Secrets.ClaudeKey != "",
		model:       model,
		maxTokens:   int64(cfg.LLM.MaxTokens),
		temperature: float64(cfg.LLM.Temperature),
		system:      system,
	}
}

// Analyze sends the instruction followed by the images, in capture order.
func (a *VisionAnalyzer) Analyze(ctx context.Context, instruction string, captures []types.Capture) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	if !a.hasKey {
		return "", &types.AnalysisError{Provider: provider, Err: errors.New("CLAUDE_API_KEY missing")}
	}
	if len(captures) == 0 {
		return "", &types.AnalysisError{Provider: provider, Err: errors.New("no images to analyze")}
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(captures)+1)
	blocks = append(blocks, anthropic.NewTextBlock(instruction))
	for _, c := range captures {
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(c.PNG)))
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(a.temperature),
		System:      []anthropic.TextBlockParam{{Text: a.system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	})
	if err != nil {
		return "", &types.AnalysisError{Provider: provider, Err: err}
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", &types.AnalysisError{Provider: provider, Err: errors.New("empty response from Claude")}
	}
	return out, nil
}
