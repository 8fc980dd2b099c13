package trend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"trading-persona-analyzer/internal/daily"
	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/patterns"
	"trading-persona-analyzer/internal/types"
)

// Service resolves trend scores for every (underlying, entry day) in a run,
// plus the configured index symbols for the same days. Each pair is looked up
// once; failures leave the score nil and produce a warning.
type Service struct {
	source      interfaces.TrendSource
	indices     []string
	concurrency int
	limiter     *rate.Limiter
}

func NewService(source interfaces.TrendSource, indices []string, concurrency int, requestsPerSecond float64) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Service{
		source:      source,
		indices:     indices,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

type lookup struct {
	symbol string
	day    string
}

// Enrich scores every trade at its entry day. The returned warnings describe
// each lookup that failed.
func (s *Service) Enrich(ctx context.Context, trades []types.MatchedTrade) (*types.TrendSummary, []string) {
	days := map[lookup]time.Time{}
	for _, t := range trades {
		day := startOfDay(t.EntryTime)
		key := daily.Day(day)
		days[lookup{patterns.Underlying(t.Symbol), key}] = day
		for _, idx := range s.indices {
			days[lookup{idx, key}] = day
		}
	}

	var (
		mu     sync.Mutex
		scores = make(map[lookup]*int, len(days))
		failed = map[lookup]error{}
	)
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for k, day := range days {
		g.Go(func() error {
			score, err := s.resolve(ctx, k.symbol, day)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[k] = err
				scores[k] = nil
				return nil
			}
			scores[k] = &score
			return nil
		})
	}
	g.Wait()

	warnings := make([]string, 0, len(failed))
	for k, err := range failed {
		logger.Degraded(ctx, "trend", err, "symbol", k.symbol, "date", k.day)
		warnings = append(warnings, fmt.Sprintf("trend score unavailable for %s on %s: %v", k.symbol, k.day, err))
	}
	sort.Strings(warnings)

	return s.summarize(trades, scores), warnings
}

func (s *Service) resolve(ctx context.Context, symbol string, day time.Time) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return s.source.TrendScore(ctx, symbol, day)
}

func (s *Service) summarize(trades []types.MatchedTrade, scores map[lookup]*int) *types.TrendSummary {
	sum := &types.TrendSummary{Contexts: make([]types.TrendContext, 0, len(trades))}
	total := 0
	idxTotals := map[string]int{}
	idxCounts := map[string]int{}

	for i, t := range trades {
		underlying := patterns.Underlying(t.Symbol)
		day := daily.Day(t.EntryTime)
		tc := types.TrendContext{
			TradeIndex: i,
			Symbol:     t.Symbol,
			Underlying: underlying,
			Date:       day,
			Score:      scores[lookup{underlying, day}],
		}
		if len(s.indices) > 0 {
			tc.Indices = make(map[string]*int, len(s.indices))
			for _, idx := range s.indices {
				v := scores[lookup{idx, day}]
				tc.Indices[idx] = v
				if v != nil {
					idxTotals[idx] += *v
					idxCounts[idx]++
				}
			}
		}

		if tc.Score == nil {
			sum.Unavailable++
		} else {
			sum.Available++
			total += *tc.Score
			with := (t.Direction == types.Long && *tc.Score > 0) || (t.Direction == types.Short && *tc.Score < 0)
			against := (t.Direction == types.Long && *tc.Score < 0) || (t.Direction == types.Short && *tc.Score > 0)
			if with && t.PnL.IsPositive() {
				sum.WithTrendWins++
			}
			if against {
				sum.AgainstTrend++
			}
		}
		sum.Contexts = append(sum.Contexts, tc)
	}

	if sum.Available > 0 {
		sum.MeanScore = float64(total) / float64(sum.Available)
	}
	if len(idxCounts) > 0 {
		sum.MeanIndexScores = make(map[string]float64, len(idxCounts))
		for idx, n := range idxCounts {
			sum.MeanIndexScores[idx] = float64(idxTotals[idx]) / float64(n)
		}
	}
	return sum
}
