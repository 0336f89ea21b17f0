package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/prompts"
	"chart-relay-bot/internal/store"
	"chart-relay-bot/internal/trace"
	"chart-relay-bot/internal/types"

	goopenai "github.com/sashabaranov/go-openai"
)

const provider = "openai"

// DefaultModel is used when llm.model is empty.
const DefaultModel = goopenai.GPT4o

// VisionAnalyzer sends the instruction and chart images to a vision-capable
// chat model in a single user message.
type VisionAnalyzer struct {
	client      *goopenai.Client
	model       string
	maxTokens   int
	temperature float32
	detail      goopenai.ImageURLDetail
	system      string
}

var _ interfaces.Analyzer = (*VisionAnalyzer)(nil)

func NewVisionAnalyzer(cfg *store.Config) *VisionAnalyzer {
	conf := goopenai.DefaultConfig(cfg.Secrets.OpenAIKey)
	if cfg.LLM.BaseURL != "" {
		conf.BaseURL = strings.TrimRight(cfg.LLM.BaseURL, "/")
	}
	conf.HTTPClient = &http.Client{Timeout: cfg.LLM.Timeout}

	system := cfg.LLM.System
	if system == "" {
		system = prompts.SystemPrompt()
	}
	model := cfg.LLM.Model
	if model == "" {
		model = DefaultModel
	}

	return &VisionAnalyzer{
		client:      goopenai.NewClientWithConfig(conf),
		model:       model,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
		detail:      goopenai.ImageURLDetail(cfg.LLM.ImageDetail),
		system:      system,
	}
}

func (a *VisionAnalyzer) Analyze(ctx context.Context, instruction string, captures []types.Capture) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if len(captures) == 0 {
		return "", &types.AnalysisError{Provider: provider, Err: errors.New("no images to analyze")}
	}

	resp, err := a.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: a.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: a.system,
			},
			{
				Role:         goopenai.ChatMessageRoleUser,
				MultiContent: a.buildParts(instruction, captures),
			},
		},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return "", &types.AnalysisError{Provider: provider, Err: fmt.Errorf("OpenAI API error (status %d): %w", apiErr.HTTPStatusCode, err)}
		}
		return "", &types.AnalysisError{Provider: provider, Err: fmt.Errorf("OpenAI API error: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return "", &types.AnalysisError{Provider: provider, Err: errors.New("no response from OpenAI")}
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", &types.AnalysisError{Provider: provider, Err: errors.New("empty response from OpenAI")}
	}
	return out, nil
}

// buildParts puts the instruction first and then one image per capture, in
// capture order, so the labels in the instruction line up with the images.
func (a *VisionAnalyzer) buildParts(instruction string, captures []types.Capture) []goopenai.ChatMessagePart {
	parts := make([]goopenai.ChatMessagePart, 0, len(captures)+1)
	parts = append(parts, goopenai.ChatMessagePart{
		Type: goopenai.ChatMessagePartTypeText,
		Text: instruction,
	})
	for _, c := range captures {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(c.PNG),
				Detail: a.detail,
			},
		})
	}
	return parts
}
