// Package claude generates narrative sections through the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trading-persona-analyzer/internal/api"
	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/trace"
)

const (
	DefaultModel = "claude-3-5-sonnet-latest"
	apiVersion   = "2023-06-01"
)

// Generator calls the Messages endpoint with a single user turn.
type Generator struct {
	client   *api.Client
	endpoint string
	cfg      store.LLMConfig
	retry    *api.RetryConfig
}

var _ interfaces.Generator = (*Generator)(nil)

func New(cfg store.LLMConfig, apiKey, endpoint string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("CLAUDE_API_KEY missing")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/v1/messages"
	}
	client := api.NewClient(
		api.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		api.WithHeader("x-api-key", apiKey),
		api.WithHeader("anthropic-version", apiVersion),
		api.WithLogging(true),
	)
	return &Generator{
		client:   client,
		endpoint: endpoint,
		cfg:      cfg,
		retry:    &api.RetryConfig{MaxAttempts: 3, InitialWait: 2 * time.Second, MaxWait: 10 * time.Second},
	}, nil
}

func (g *Generator) Name() string  { return "CLAUDE" }
func (g *Generator) Model() string { return g.cfg.Model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p,omitempty"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	body := request{
		Model:       g.cfg.Model,
		System:      system,
		Messages:    []message{{Role: "user", Content: prompt}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		TopP:        g.cfg.TopP,
	}
	resp, err := g.client.DoWithRetry(api.NewRequest(ctx, http.MethodPost, g.endpoint).WithBody(body), g.retry)
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	var out response
	if err := resp.ParseJSON(&out); err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}
	var b strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("claude: no text content (stop_reason %q)", out.StopReason)
	}
	return b.String(), nil
}
