package patterns

import (
	"fmt"

	"trading-persona-analyzer/internal/daily"
	"trading-persona-analyzer/internal/stats"
	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

// DetectOvertrading compares executions per active day against the daily cap.
// The statistic is the mean, or the configured percentile when set.
func DetectOvertrading(trades []types.MatchedTrade, executions []types.Execution, cfg store.PatternConfig) types.PatternFinding {
	oc := cfg.Overtrading
	perDay := daily.ExecutionsPerDay(executions)

	statName := "average"
	stat := stats.Mean(perDay)
	if oc.Percentile > 0 {
		statName = fmt.Sprintf("p%.0f", oc.Percentile)
		stat = stats.Percentile(perDay, oc.Percentile)
	}

	busyDays := 0
	for _, n := range perDay {
		if n > oc.MaxTradesPerDay {
			busyDays++
		}
	}

	f := types.PatternFinding{
		Pattern:    types.PatternOvertrading,
		Count:      busyDays,
		Magnitude:  stat,
		Threshold:  oc.MaxTradesPerDay,
		SampleSize: len(executions),
		Description: fmt.Sprintf("%s %.1f executions/day over %d days (limit %.0f); %d days above limit",
			statName, stat, len(perDay), oc.MaxTradesPerDay, busyDays),
	}
	return finalize(f, stat > oc.MaxTradesPerDay, cfg.MinTradesForPattern, oc.Tiers)
}
