package interfaces

import (
	"context"
	"time"
)

// TrendSource scores the moving-average trend of a symbol as of a date.
// Scores range from -6 (strong downtrend) to +6 (strong uptrend).
type TrendSource interface {
	TrendScore(ctx context.Context, symbol string, date time.Time) (int, error)
}

// Cache stores opaque payloads by key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Close() error
}
