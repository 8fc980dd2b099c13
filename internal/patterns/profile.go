package patterns

import (
	"sort"

	"trading-persona-analyzer/internal/daily"
	"trading-persona-analyzer/internal/stats"
	"trading-persona-analyzer/internal/types"
)

const topSymbolCount = 5

// InstrumentKinds lists the instrument kinds in report order.
var InstrumentKinds = []InstrumentKind{KindEquity, KindFuture, KindCall, KindPut}

// Holding period buckets, in report order.
var HoldingBuckets = []string{"<5m", "5-30m", "30m-1h", "1h-1d", ">1d"}

// BuildProfile describes style and timing habits. It feeds the narrative only.
func BuildProfile(trades []types.MatchedTrade, executions []types.Execution) types.TradingProfile {
	p := types.TradingProfile{
		HoldingDistribution: map[string]int{},
		InstrumentMix:       map[string]float64{},
	}
	for _, b := range HoldingBuckets {
		p.HoldingDistribution[b] = 0
	}

	avgPerDay := stats.Mean(daily.ExecutionsPerDay(executions))
	p.Style, p.StyleDescription = styleFor(avgPerDay)

	hours := map[int]int{}
	symbols := map[string]int{}
	kinds := map[InstrumentKind]int{}
	underlyings := map[string]int{}
	for _, e := range executions {
		h := e.Timestamp.Hour()
		hours[h]++
		if h < 12 {
			p.MorningTrades++
		} else {
			p.AfternoonTrades++
		}
		symbols[e.Symbol]++
		inst := ParseInstrument(e.Symbol)
		kinds[inst.Kind]++
		underlyings[inst.Underlying]++
	}
	switch {
	case p.MorningTrades > p.AfternoonTrades:
		p.TimePreference = "Morning"
	case p.AfternoonTrades > p.MorningTrades:
		p.TimePreference = "Afternoon"
	default:
		p.TimePreference = "Balanced"
	}
	p.MostActiveHours = topHours(hours, 3)

	p.TopSymbols, p.TopSymbolsShare = topShares(symbols, len(executions))
	p.TopUnderlyings, _ = topShares(underlyings, len(executions))
	for _, k := range InstrumentKinds {
		p.InstrumentMix[string(k)] = pct(kinds[k], len(executions))
	}

	for _, t := range trades {
		p.HoldingDistribution[holdingBucket(t.HoldingMinutes)]++
	}
	return p
}

// topShares returns the most traded keys with their share of total, and the
// combined share of those returned.
func topShares(counts map[string]int, total int) ([]types.SymbolShare, float64) {
	shares := make([]types.SymbolShare, 0, len(counts))
	for s, n := range counts {
		shares = append(shares, types.SymbolShare{Symbol: s, Executions: n})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Executions != shares[j].Executions {
			return shares[i].Executions > shares[j].Executions
		}
		return shares[i].Symbol < shares[j].Symbol
	})
	if len(shares) > topSymbolCount {
		shares = shares[:topSymbolCount]
	}
	topTotal := 0
	for i := range shares {
		shares[i].Share = pct(shares[i].Executions, total)
		topTotal += shares[i].Executions
	}
	return shares, pct(topTotal, total)
}

func styleFor(avgPerDay float64) (string, string) {
	switch {
	case avgPerDay > 20:
		return "High-Frequency Scalper", "Very high activity with many executions every session"
	case avgPerDay > 10:
		return "Day Trader", "Frequent intraday activity across most sessions"
	case avgPerDay > 5:
		return "Active Trader", "Regular activity with several executions per session"
	default:
		return "Position Trader", "Selective activity with few executions per session"
	}
}

func holdingBucket(minutes float64) string {
	switch {
	case minutes < 5:
		return HoldingBuckets[0]
	case minutes < 30:
		return HoldingBuckets[1]
	case minutes < 60:
		return HoldingBuckets[2]
	case minutes < 24*60:
		return HoldingBuckets[3]
	default:
		return HoldingBuckets[4]
	}
}

func topHours(counts map[int]int, n int) []int {
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
