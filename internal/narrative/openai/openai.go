// Package openai generates narrative sections with the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/trace"
)

const DefaultModel = "gpt-4o-mini"

type Generator struct {
	client  sdk.Client // NewClient returns a value, not a pointer
	cfg     store.LLMConfig
	timeout time.Duration
}

var _ interfaces.Generator = (*Generator)(nil)

func New(cfg store.LLMConfig, apiKey string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY missing")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Generator{client: sdk.NewClient(opts...), cfg: cfg, timeout: timeout}, nil
}

func (g *Generator) Name() string  { return "OPENAI" }
func (g *Generator) Model() string { return g.cfg.Model }

func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(g.cfg.Model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(system),
			sdk.UserMessage(prompt),
		},
		Temperature: sdk.Float(g.cfg.Temperature),
	}
	if g.cfg.TopP > 0 {
		params.TopP = sdk.Float(g.cfg.TopP)
	}
	if g.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(g.cfg.MaxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
