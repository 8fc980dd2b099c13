package brokerobs

import (
	"context"
	"time"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/trace"
	"trading-persona-analyzer/internal/types"
)

// observableSource wraps an ExecutionSource with logging and tracing
type observableSource struct {
	name   string
	source interfaces.ExecutionSource
}

var _ interfaces.ExecutionSource = (*observableSource)(nil)

// WrapSource wraps an execution source with observability middleware
func WrapSource(name string, source interfaces.ExecutionSource) interfaces.ExecutionSource {
	return &observableSource{name: name, source: source}
}

func (o *observableSource) Executions(ctx context.Context) ([]types.Execution, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Executions")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Fetching executions", "broker", o.name)

	start := time.Now()
	execs, err := o.source.Executions(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch executions", err, "broker", o.name)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Executions fetched successfully",
		"broker", o.name,
		"count", len(execs),
		"duration", time.Since(start),
	)
	return execs, nil
}

// observableCandles wraps a CandleProvider with logging and tracing
type observableCandles struct {
	name     string
	provider interfaces.CandleProvider
}

var _ interfaces.CandleProvider = (*observableCandles)(nil)

func WrapCandles(name string, provider interfaces.CandleProvider) interfaces.CandleProvider {
	return &observableCandles{name: name, provider: provider}
}

func (o *observableCandles) DailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.DailyCandles")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching daily candles", "provider", o.name, "symbol", symbol,
		"from", from.Format(time.DateOnly), "to", to.Format(time.DateOnly))

	candles, err := o.provider.DailyCandles(ctx, symbol, from, to)
	if err != nil {
		logger.WarnSkip(ctx, 1, "Failed to fetch daily candles", "provider", o.name, "symbol", symbol, "error", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Daily candles fetched", "provider", o.name, "symbol", symbol, "count", len(candles))
	return candles, nil
}
