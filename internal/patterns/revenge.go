package patterns

import (
	"fmt"
	"sort"
	"time"

	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

// DetectRevengeTrading counts trades entered shortly after a losing trade
// closed. The trade compared against is the one that closed most recently
// before the entry, whenever it was opened.
func DetectRevengeTrading(trades []types.MatchedTrade, executions []types.Execution, cfg store.PatternConfig) types.PatternFinding {
	rc := cfg.Revenge
	window := time.Duration(rc.WindowMinutes * float64(time.Minute))

	byEntry := make([]int, len(trades))
	byExit := make([]int, len(trades))
	for i := range trades {
		byEntry[i], byExit[i] = i, i
	}
	sort.SliceStable(byEntry, func(a, b int) bool {
		return trades[byEntry[a]].EntryTime.Before(trades[byEntry[b]].EntryTime)
	})
	sort.SliceStable(byExit, func(a, b int) bool {
		x, y := trades[byExit[a]], trades[byExit[b]]
		if !x.ExitTime.Equal(y.ExitTime) {
			return x.ExitTime.Before(y.ExitTime)
		}
		return x.EntryTime.Before(y.EntryTime)
	})

	count := 0
	closed := 0
	last, beforeLast := -1, -1
	for _, i := range byEntry {
		cur := trades[i]
		for closed < len(byExit) && !trades[byExit[closed]].ExitTime.After(cur.EntryTime) {
			beforeLast, last = last, byExit[closed]
			closed++
		}
		prevIdx := last
		if prevIdx == i {
			prevIdx = beforeLast
		}
		if prevIdx < 0 {
			continue
		}
		prev := trades[prevIdx]
		if !prev.PnL.IsNegative() {
			continue
		}
		if cur.EntryTime.Sub(prev.ExitTime) > window {
			continue
		}
		if rc.RequireSizeIncrease && cur.Quantity <= prev.Quantity {
			continue
		}
		count++
	}

	desc := fmt.Sprintf("%d trades entered within %.0f minutes of a losing exit", count, rc.WindowMinutes)
	if rc.RequireSizeIncrease {
		desc += " with larger size"
	}
	f := types.PatternFinding{
		Pattern:     types.PatternRevenge,
		Count:       count,
		Magnitude:   float64(count),
		Threshold:   float64(rc.MinCount),
		SampleSize:  len(trades),
		Description: desc,
	}
	return finalize(f, count > rc.MinCount, cfg.MinTradesForPattern, rc.Tiers)
}
