package patterns

import (
	"fmt"

	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

// DetectScalping measures the share of round trips held shorter than the limit.
func DetectScalping(trades []types.MatchedTrade, executions []types.Execution, cfg store.PatternConfig) types.PatternFinding {
	sc := cfg.Scalping

	quick := 0
	for _, t := range trades {
		if t.HoldingMinutes < sc.MaxHoldingMinutes {
			quick++
		}
	}
	ratio := 0.0
	if len(trades) > 0 {
		ratio = float64(quick) / float64(len(trades))
	}

	f := types.PatternFinding{
		Pattern:    types.PatternScalping,
		Count:      quick,
		Magnitude:  ratio,
		Threshold:  sc.MinRatio,
		SampleSize: len(trades),
		Description: fmt.Sprintf("%d of %d trades (%.1f%%) held under %.0f minutes",
			quick, len(trades), ratio*100, sc.MaxHoldingMinutes),
	}
	return finalize(f, ratio > sc.MinRatio, cfg.MinTradesForPattern, sc.Tiers)
}
