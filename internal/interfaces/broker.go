package interfaces

import (
	"context"
	"time"

	"trading-persona-analyzer/internal/types"
)

// ExecutionSource pulls a trader's fills from a broker account.
type ExecutionSource interface {
	Executions(ctx context.Context) ([]types.Execution, error)
}

// CandleProvider returns daily candles for [from, to], oldest first.
type CandleProvider interface {
	DailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]types.Candle, error)
}
