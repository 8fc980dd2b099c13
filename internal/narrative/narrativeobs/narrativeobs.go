package narrativeobs

import (
	"context"
	"time"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/trace"
)

// observableGenerator wraps a Generator with logging and tracing
type observableGenerator struct {
	gen interfaces.Generator
}

var _ interfaces.Generator = (*observableGenerator)(nil)

func Wrap(gen interfaces.Generator) interfaces.Generator {
	return &observableGenerator{gen: gen}
}

func (o *observableGenerator) Name() string  { return o.gen.Name() }
func (o *observableGenerator) Model() string { return o.gen.Model() }

func (o *observableGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Generate")
	defer span.End()

	// Skip(1) reports the narrator, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting narrative section",
		"provider", o.gen.Name(),
		"model", o.gen.Model(),
		"prompt_chars", len(prompt),
	)

	start := time.Now()
	text, err := o.gen.Generate(ctx, system, prompt)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Narrative section failed", err,
			"provider", o.gen.Name(),
			"duration", time.Since(start),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Narrative section received",
		"provider", o.gen.Name(),
		"chars", len(text),
		"duration", time.Since(start),
	)
	return text, nil
}
