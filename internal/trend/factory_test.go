package trend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-persona-analyzer/internal/store"
)

func TestFromConfig(t *testing.T) {
	cfg := store.Default().Trend
	cfg.Provider = "CSV"
	cfg.CandleDir = t.TempDir()
	cfg.Cache = store.CacheConfig{Backend: "sqlite", Path: t.TempDir() + "/trend.db", TTLHours: 1}

	svc, closeFn, err := FromConfig(context.Background(), cfg, &store.Secrets{})
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.NoError(t, closeFn())

	cfg.Provider = "KITE"
	_, closeFn, err = FromConfig(context.Background(), cfg, &store.Secrets{})
	assert.ErrorContains(t, err, "kite candle provider")
	assert.NoError(t, closeFn())

	cfg.Provider = "YAHOO"
	_, _, err = FromConfig(context.Background(), cfg, &store.Secrets{})
	assert.Error(t, err)
}
