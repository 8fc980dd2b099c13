package noop

import (
	"context"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/types"
)

// Narrator is used when no LLM provider is configured. It produces no text.
type Narrator struct{}

var _ interfaces.Narrator = Narrator{}

func New() Narrator {
	return Narrator{}
}

func (Narrator) Narrate(ctx context.Context, in types.NarrativeInput) (types.Narrative, error) {
	logger.Debug(ctx, "Noop narrator called - narrative omitted", "trader", in.Trader)
	return types.Narrative{}, nil
}
