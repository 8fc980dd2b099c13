package trend

import (
	"context"
	"fmt"

	"trading-persona-analyzer/internal/broker/brokerobs"
	"trading-persona-analyzer/internal/broker/zerodha"
	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/store"
)

// FromConfig assembles provider, cache, scorer and service. The returned
// close function releases the cache and is never nil.
func FromConfig(ctx context.Context, cfg store.TrendConfig, secrets *store.Secrets) (*Service, func() error, error) {
	noop := func() error { return nil }

	var provider interfaces.CandleProvider
	switch cfg.Provider {
	case "KITE":
		k, err := zerodha.New(zerodha.Params{
			APIKey:      secrets.KiteAPIKey,
			AccessToken: secrets.KiteAccessToken,
			Exchange:    cfg.Exchange,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("kite candle provider: %w", err)
		}
		provider = k
	case "CSV":
		provider = NewCSVProvider(cfg.CandleDir)
	default:
		return nil, noop, fmt.Errorf("unknown trend provider %q", cfg.Provider)
	}
	provider = brokerobs.WrapCandles(cfg.Provider, provider)

	cache, err := NewCache(cfg.Cache)
	if err != nil {
		return nil, noop, fmt.Errorf("trend cache: %w", err)
	}
	closeFn := noop
	if cache != nil {
		closeFn = cache.Close
	}

	logger.Info(ctx, "Trend enrichment ready",
		"provider", cfg.Provider,
		"cache", cfg.Cache.Backend,
		"indices", cfg.IndexSymbols,
		"concurrency", cfg.Concurrency,
	)

	scorer := NewEMAScorer(WithCache(provider, cache), cfg.SymbolAliases, cfg.LookbackDays)
	return NewService(scorer, cfg.IndexSymbols, cfg.Concurrency, cfg.RequestsPerSecond), closeFn, nil
}
