// Package ollama generates narrative sections with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trading-persona-analyzer/internal/api"
	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/trace"
)

const DefaultModel = "llama3.1"

type Generator struct {
	client *api.Client
	cfg    store.LLMConfig
}

var _ interfaces.Generator = (*Generator)(nil)

// New targets cfg.BaseURL when set, otherwise baseURL (OLLAMA_URL).
func New(cfg store.LLMConfig, baseURL string) *Generator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	return &Generator{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(baseURL, "/")),
			api.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
			api.WithLogging(true),
		),
		cfg: cfg,
	}
}

func (g *Generator) Name() string  { return "OLLAMA" }
func (g *Generator) Model() string { return g.cfg.Model }

type options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type request struct {
	Model   string  `json:"model"`
	System  string  `json:"system,omitempty"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type response struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "ollama-generate")
	defer span.End()

	body := request{
		Model:  g.cfg.Model,
		System: system,
		Prompt: prompt,
		Options: options{
			Temperature: g.cfg.Temperature,
			TopP:        g.cfg.TopP,
			NumPredict:  g.cfg.MaxTokens,
		},
	}
	resp, err := g.client.Do(api.NewRequest(ctx, http.MethodPost, "/api/generate").WithBody(body))
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	var out response
	if err := resp.ParseJSON(&out); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return out.Response, nil
}
