package patterns

import (
	"fmt"
	"sort"

	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

// DetectHedging replays executions in time order and counts every execution
// that opens or extends a position whose view is opposite to another open
// position on the same underlying.
func DetectHedging(trades []types.MatchedTrade, executions []types.Execution, cfg store.PatternConfig) types.PatternFinding {
	hc := cfg.Hedging

	ordered := append([]types.Execution(nil), executions...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp.Before(ordered[j].Timestamp) })

	net := map[string]int64{}
	instruments := map[string]Instrument{}
	open := map[string]map[string]struct{}{} // underlying -> symbols with a non-zero position
	perUnderlying := map[string]int{}
	count := 0

	for _, e := range ordered {
		inst, ok := instruments[e.Symbol]
		if !ok {
			inst = ParseInstrument(e.Symbol)
			instruments[e.Symbol] = inst
		}
		before := net[e.Symbol]
		after := before + e.Side.Sign()*e.Quantity

		if grows(before, after) {
			view := inst.ExposureOf(after)
			for other := range open[inst.Underlying] {
				if other == e.Symbol {
					continue
				}
				if instruments[other].ExposureOf(net[other]) == opposite(view) {
					count++
					perUnderlying[inst.Underlying]++
					break
				}
			}
		}

		net[e.Symbol] = after
		if open[inst.Underlying] == nil {
			open[inst.Underlying] = map[string]struct{}{}
		}
		if after == 0 {
			delete(open[inst.Underlying], e.Symbol)
		} else {
			open[inst.Underlying][e.Symbol] = struct{}{}
		}
	}

	desc := fmt.Sprintf("%d executions opened exposure against an existing position on the same underlying", count)
	if u, n := topKey(perUnderlying); n > 0 {
		desc += fmt.Sprintf("; most on %s (%d)", u, n)
	}
	f := types.PatternFinding{
		Pattern:     types.PatternHedging,
		Count:       count,
		Magnitude:   float64(count),
		Threshold:   float64(hc.MinCount),
		SampleSize:  len(executions),
		Description: desc,
	}
	return finalize(f, count > hc.MinCount, cfg.MinTradesForPattern, hc.Tiers)
}

// grows reports whether moving from before to after opened, extended or
// flipped the position.
func grows(before, after int64) bool {
	if after == 0 {
		return false
	}
	if before == 0 || !sameSign(before, after) {
		return true
	}
	return abs64(after) > abs64(before)
}

func opposite(e Exposure) Exposure {
	switch e {
	case Bullish:
		return Bearish
	case Bearish:
		return Bullish
	default:
		return Flat
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
