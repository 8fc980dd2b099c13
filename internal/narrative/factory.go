package narrative

import (
	"context"
	"fmt"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/narrative/claude"
	"trading-persona-analyzer/internal/narrative/narrativeobs"
	"trading-persona-analyzer/internal/narrative/noop"
	"trading-persona-analyzer/internal/narrative/ollama"
	"trading-persona-analyzer/internal/narrative/openai"
	"trading-persona-analyzer/internal/store"
)

// FromConfig picks the narrator for cfg.Provider. An unset provider or NONE
// yields a narrator that produces nothing.
func FromConfig(ctx context.Context, cfg store.LLMConfig, secrets *store.Secrets) (interfaces.Narrator, error) {
	var gen interfaces.Generator

	switch cfg.Provider {
	case "OPENAI":
		g, err := openai.New(cfg, secrets.OpenAIKey)
		if err != nil {
			return nil, err
		}
		gen = g
	case "CLAUDE":
		g, err := claude.New(cfg, secrets.ClaudeKey, secrets.ClaudeEndpoint)
		if err != nil {
			return nil, err
		}
		gen = g
	case "OLLAMA":
		gen = ollama.New(cfg, secrets.OllamaURL)
	case "", "NONE":
		logger.Info(ctx, "No LLM provider configured - narrative will be omitted")
		return noop.New(), nil
	default:
		return nil, fmt.Errorf("unknown llm.provider %q", cfg.Provider)
	}

	logger.Info(ctx, "Narrative provider ready", "provider", gen.Name(), "model", gen.Model())
	return New(narrativeobs.Wrap(gen)), nil
}
