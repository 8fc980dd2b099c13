// Package metrics computes performance statistics over matched trades.
//
// Every ratio with a possibly-zero denominator resolves to a fallback value
// and records the metric name and reason in MetricsReport.Fallbacks.
package metrics

import (
	"math"
	"sort"

	"trading-persona-analyzer/internal/daily"
	"trading-persona-analyzer/internal/stats"
	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

const (
	FallbackNoTrades      = "no matched trades"
	FallbackNoLosses      = "no losing trades"
	FallbackNoDecided     = "no winning or losing trades"
	FallbackFewReturns    = "fewer than two returns"
	FallbackNoVariance    = "zero return variance"
	FallbackNoDownside    = "no negative excess returns"
	FallbackNonPositivePk = "drawdown measured from a non-positive peak"
)

// deviations below epsilon are rounding noise from identical returns
const epsilon = 1e-12

// Calculate is a pure function of its inputs.
func Calculate(trades []types.MatchedTrade, executions []types.Execution, cfg store.MetricsConfig) types.MetricsReport {
	ordered := Chronological(trades)
	r := types.MetricsReport{
		TotalTrades:     len(ordered),
		TotalExecutions: len(executions),
		Fallbacks:       map[string]string{},
	}

	pnls := make([]float64, len(ordered))
	var holding, tradeValue []float64
	var wins, losses []float64
	for i, t := range ordered {
		p := t.PnLFloat()
		pnls[i] = p
		holding = append(holding, t.HoldingMinutes)
		tradeValue = append(tradeValue, t.TradeValue.InexactFloat64())
		r.TotalCharges += t.Charges.InexactFloat64()
		if t.Direction == types.Short {
			r.ShortTrades++
		} else {
			r.LongTrades++
		}
		switch {
		case p > 0:
			wins = append(wins, p)
		case p < 0:
			losses = append(losses, p)
		}
	}

	r.WinningTrades = len(wins)
	r.LosingTrades = len(losses)
	r.TotalPnL = stats.Sum(pnls)
	r.GrossProfit = stats.Sum(wins)
	r.GrossLoss = stats.Sum(losses)
	r.AvgHoldingMinutes = stats.Mean(holding)
	r.AvgTradeValue = stats.Mean(tradeValue)
	r.AvgWin = stats.Mean(wins)
	r.AvgLoss = stats.Mean(losses)
	for _, w := range wins {
		r.LargestWin = math.Max(r.LargestWin, w)
	}
	for _, l := range losses {
		r.LargestLoss = math.Min(r.LargestLoss, l)
	}

	if r.TotalTrades == 0 {
		r.Fallbacks["win_rate"] = FallbackNoTrades
		r.Fallbacks["avg_pnl"] = FallbackNoTrades
		r.Fallbacks["expectancy"] = FallbackNoTrades
	} else {
		n := float64(r.TotalTrades)
		winRate := float64(r.WinningTrades) / n
		lossRate := float64(r.LosingTrades) / n
		r.WinRate = winRate * 100
		r.AvgPnL = r.TotalPnL / n
		// AvgLoss is negative, so this is win_rate*avg_win - loss_rate*|avg_loss|
		r.Expectancy = winRate*r.AvgWin + lossRate*r.AvgLoss
	}

	r.ProfitFactor = profitFactor(r, cfg.ProfitFactorSentinel)

	returns := returnSeries(ordered, executions, cfg.ReturnSeries)
	r.SharpeRatio, r.SortinoRatio = riskAdjusted(returns, cfg, r.Fallbacks)

	r.MaxDrawdown, r.MaxDrawdownPct = maxDrawdown(pnls, cfg.InitialCapital, r.Fallbacks)
	r.MaxConsecutiveWins, r.MaxConsecutiveLosses = streaks(pnls)

	activity(&r, executions, ordered)

	if len(r.Fallbacks) == 0 {
		r.Fallbacks = nil
	}
	return r
}

// Chronological returns a copy of trades ordered by exit time, then entry time.
func Chronological(trades []types.MatchedTrade) []types.MatchedTrade {
	out := append([]types.MatchedTrade(nil), trades...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ExitTime.Equal(out[j].ExitTime) {
			return out[i].ExitTime.Before(out[j].ExitTime)
		}
		return out[i].EntryTime.Before(out[j].EntryTime)
	})
	return out
}

func profitFactor(r types.MetricsReport, sentinel float64) float64 {
	switch {
	case r.TotalTrades == 0:
		r.Fallbacks["profit_factor"] = FallbackNoTrades
		return 0
	case r.GrossLoss == 0 && r.GrossProfit > 0:
		r.Fallbacks["profit_factor"] = FallbackNoLosses
		return sentinel
	case r.GrossLoss == 0:
		r.Fallbacks["profit_factor"] = FallbackNoDecided
		return 0
	}
	return r.GrossProfit / math.Abs(r.GrossLoss)
}

func returnSeries(trades []types.MatchedTrade, executions []types.Execution, kind string) []float64 {
	if kind == "daily" {
		return daily.Returns(daily.Summarize(executions, trades))
	}
	out := make([]float64, 0, len(trades))
	for _, t := range trades {
		notional := t.EntryNotional.InexactFloat64()
		if notional <= 0 {
			continue
		}
		out = append(out, t.PnLFloat()/notional)
	}
	return out
}

func riskAdjusted(returns []float64, cfg store.MetricsConfig, fallbacks map[string]string) (sharpe, sortino float64) {
	if len(returns) < 2 {
		fallbacks["sharpe_ratio"] = FallbackFewReturns
		fallbacks["sortino_ratio"] = FallbackFewReturns
		return 0, 0
	}

	periods := float64(cfg.TradingPeriodsPerYear)
	excess := stats.Subtract(returns, cfg.RiskFreeRate/periods)
	mean := stats.Mean(excess)
	annualize := math.Sqrt(periods)

	if sd := stats.SampleStdDev(excess); sd > epsilon {
		sharpe = mean / sd * annualize
	} else {
		fallbacks["sharpe_ratio"] = FallbackNoVariance
	}

	if dd, n := stats.DownsideDeviation(excess); n > 0 && dd > epsilon {
		sortino = mean / dd * annualize
	} else {
		fallbacks["sortino_ratio"] = FallbackNoDownside
	}
	return sharpe, sortino
}

// maxDrawdown walks the equity curve starting at initial capital.
func maxDrawdown(pnls []float64, initial float64, fallbacks map[string]string) (abs, pct float64) {
	equity, peak := initial, initial
	peakAtMax := initial
	for _, p := range pnls {
		equity += p
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > abs {
			abs = dd
			peakAtMax = peak
		}
	}
	if abs == 0 {
		return 0, 0
	}
	if peakAtMax <= 0 {
		fallbacks["max_drawdown_pct"] = FallbackNonPositivePk
		return abs, 0
	}
	return abs, abs / peakAtMax * 100
}

// streaks counts the longest runs of positive and negative P&L; a flat trade breaks both.
func streaks(pnls []float64) (maxWins, maxLosses int) {
	w, l := 0, 0
	for _, p := range pnls {
		switch {
		case p > 0:
			w++
			l = 0
		case p < 0:
			l++
			w = 0
		default:
			w, l = 0, 0
		}
		maxWins = max(maxWins, w)
		maxLosses = max(maxLosses, l)
	}
	return maxWins, maxLosses
}

func activity(r *types.MetricsReport, executions []types.Execution, trades []types.MatchedTrade) {
	perDay := daily.ExecutionsPerDay(executions)
	r.TradingDays = len(perDay)
	if r.TradingDays > 0 {
		r.AvgTradesPerDay = float64(len(executions)) / float64(r.TradingDays)
	}

	var first, last string
	note := func(d string) {
		if first == "" || d < first {
			first = d
		}
		if d > last {
			last = d
		}
	}
	for _, e := range executions {
		note(daily.Day(e.Timestamp))
	}
	if len(executions) == 0 {
		for _, t := range trades {
			note(daily.Day(t.EntryTime))
			note(daily.Day(t.ExitTime))
		}
	}
	r.FirstTradeDate, r.LastTradeDate = first, last
}
