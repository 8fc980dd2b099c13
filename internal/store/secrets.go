package store

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Secrets are credentials read from the environment, never from config.yaml.
type Secrets struct {
	OpenAIKey       string `envconfig:"OPENAI_API_KEY"`
	ClaudeKey       string `envconfig:"CLAUDE_API_KEY"`
	ClaudeEndpoint  string `envconfig:"CLAUDE_API_ENDPOINT" default:"https://api.anthropic.com/v1/messages"`
	OllamaURL       string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	KiteAPIKey      string `envconfig:"KITE_API_KEY"`
	KiteAccessToken string `envconfig:"KITE_ACCESS_TOKEN"`
	DhanAccessToken string `envconfig:"DHAN_ACCESS_TOKEN"`
	DhanClientID    string `envconfig:"DHAN_CLIENT_ID"`
	DhanBaseURL     string `envconfig:"DHAN_BASE_URL" default:"https://api.dhan.co"`
}

func LoadSecrets() (*Secrets, error) {
	// .env is optional
	_ = godotenv.Load()

	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to process env secrets: %w", err)
	}
	return &s, nil
}

// Check reports the first credential missing for the configured collaborators.
func (s *Secrets) Check(cfg *Config) error {
	switch cfg.LLM.Provider {
	case "OPENAI":
		if s.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY missing for llm.provider OPENAI")
		}
	case "CLAUDE":
		if s.ClaudeKey == "" {
			return fmt.Errorf("CLAUDE_API_KEY missing for llm.provider CLAUDE")
		}
	}
	if cfg.Trend.Enabled && cfg.Trend.Provider == "KITE" {
		if s.KiteAPIKey == "" || s.KiteAccessToken == "" {
			return fmt.Errorf("KITE_API_KEY and KITE_ACCESS_TOKEN required for trend.provider KITE")
		}
	}
	return nil
}
