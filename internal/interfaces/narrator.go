package interfaces

import (
	"context"

	"trading-persona-analyzer/internal/types"
)

// Narrator turns a finished analysis into readable commentary.
type Narrator interface {
	Narrate(ctx context.Context, in types.NarrativeInput) (types.Narrative, error)
}

// Generator is a single-prompt text completion backend.
type Generator interface {
	Name() string
	Model() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}
