// Package daily aggregates executions and closed trades by calendar day.
// Days are taken in the location the timestamps carry.
package daily

import (
	"sort"
	"time"

	"trading-persona-analyzer/internal/types"
)

const dayLayout = "2006-01-02"

func Day(t time.Time) string { return t.Format(dayLayout) }

type dayRow struct {
	stat    types.DailyStat
	symbols map[string]struct{}
}

// Summarize returns one row per calendar day that saw an execution or a trade exit, oldest first.
// Closed trades are booked on their exit day.
func Summarize(executions []types.Execution, trades []types.MatchedTrade) []types.DailyStat {
	rows := map[string]*dayRow{}
	row := func(d string) *dayRow {
		r := rows[d]
		if r == nil {
			r = &dayRow{stat: types.DailyStat{Date: d}, symbols: map[string]struct{}{}}
			rows[d] = r
		}
		return r
	}

	for _, e := range executions {
		r := row(Day(e.Timestamp))
		r.stat.Executions++
		r.symbols[e.Symbol] = struct{}{}
	}
	for _, t := range trades {
		r := row(Day(t.ExitTime))
		pnl := t.PnLFloat()
		r.stat.ClosedTrades++
		r.stat.PnL += pnl
		r.stat.EntryNotional += t.EntryNotional.InexactFloat64()
		switch {
		case pnl > 0:
			r.stat.Wins++
		case pnl < 0:
			r.stat.Losses++
		}
	}

	out := make([]types.DailyStat, 0, len(rows))
	for _, r := range rows {
		r.stat.Symbols = len(r.symbols)
		out = append(out, r.stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ExecutionsPerDay counts executions on each day that had at least one.
func ExecutionsPerDay(executions []types.Execution) []float64 {
	counts := map[string]int{}
	for _, e := range executions {
		counts[Day(e.Timestamp)]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = float64(counts[d])
	}
	return out
}

// Returns gives each day's realized P&L over the entry notional closed that day.
// Days without closed trades are skipped.
func Returns(stats []types.DailyStat) []float64 {
	out := make([]float64, 0, len(stats))
	for _, s := range stats {
		if s.ClosedTrades == 0 || s.EntryNotional <= 0 {
			continue
		}
		out = append(out, s.PnL/s.EntryNotional)
	}
	return out
}
