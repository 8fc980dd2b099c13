package patterns

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

var day0 = time.Date(2024, 9, 2, 9, 15, 0, 0, time.UTC)

func exec(symbol string, side types.Side, qty int64, at time.Duration) types.Execution {
	return types.Execution{
		Timestamp: day0.Add(at),
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Price:     decimal.NewFromInt(100),
	}
}

func trade(pnl float64, qty int64, entry time.Duration, hold time.Duration) types.MatchedTrade {
	return types.MatchedTrade{
		Symbol:         "X",
		Direction:      types.Long,
		EntryTime:      day0.Add(entry),
		ExitTime:       day0.Add(entry + hold),
		Quantity:       qty,
		PnL:            decimal.NewFromFloat(pnl),
		HoldingMinutes: hold.Minutes(),
	}
}

func patternCfg() store.PatternConfig {
	return store.Default().Patterns
}

// burst returns n alternating executions on one day, one minute apart.
func burst(day int, n int) []types.Execution {
	out := make([]types.Execution, n)
	for i := range out {
		side := types.SideBuy
		if i%2 == 1 {
			side = types.SideSell
		}
		out[i] = exec("X", side, 1, time.Duration(day)*24*time.Hour+time.Duration(i)*time.Minute)
	}
	return out
}

func TestTier(t *testing.T) {
	tiers := store.Tiers{MediumAt: 5, HighAt: 10}
	assert.Equal(t, types.SeverityLow, Tier(4.9, tiers))
	assert.Equal(t, types.SeverityMedium, Tier(5, tiers))
	assert.Equal(t, types.SeverityMedium, Tier(9.99, tiers))
	assert.Equal(t, types.SeverityHigh, Tier(10, tiers))
}

func TestOvertrading(t *testing.T) {
	cfg := patternCfg()

	t.Run("busy days trigger", func(t *testing.T) {
		execs := append(burst(0, 16), burst(1, 16)...)
		f := DetectOvertrading(nil, execs, cfg)
		assert.True(t, f.Detected)
		assert.InDelta(t, 16.0, f.Magnitude, 1e-9)
		assert.Equal(t, 2, f.Count)
		assert.Equal(t, types.SeverityMedium, f.Severity)
		assert.Equal(t, 32, f.SampleSize)
	})

	t.Run("quiet days pass", func(t *testing.T) {
		execs := append(burst(0, 4), burst(1, 6)...)
		f := DetectOvertrading(nil, execs, cfg)
		assert.False(t, f.Detected)
		assert.InDelta(t, 5.0, f.Magnitude, 1e-9)
		assert.Equal(t, types.SeverityLow, f.Severity)
	})

	t.Run("below sample floor is not detected", func(t *testing.T) {
		c := cfg
		c.MinTradesForPattern = 50
		f := DetectOvertrading(nil, burst(0, 20), c)
		assert.False(t, f.Detected)
		assert.Equal(t, types.SeverityLow, f.Severity)
		assert.InDelta(t, 20.0, f.Magnitude, 1e-9)
		assert.Contains(t, f.Description, "not evaluated")
	})

	t.Run("percentile statistic", func(t *testing.T) {
		c := cfg
		c.Overtrading.Percentile = 90
		execs := append(append(burst(0, 2), burst(1, 2)...), burst(2, 30)...)
		f := DetectOvertrading(nil, execs, c)
		assert.True(t, f.Detected)
		assert.Greater(t, f.Magnitude, 10.0)
		assert.Contains(t, f.Description, "p90")
	})
}

func TestRevengeTrading(t *testing.T) {
	cfg := patternCfg()
	cfg.Revenge.MinCount = 1

	trades := []types.MatchedTrade{
		trade(-50, 10, 0, 10*time.Minute),
		trade(20, 10, 15*time.Minute, 10*time.Minute), // 5m after a loss
		trade(-10, 10, 30*time.Minute, 5*time.Minute), // after a win
		trade(5, 20, 40*time.Minute, 5*time.Minute),   // 5m after a loss, larger
		trade(-5, 10, 3*time.Hour, 5*time.Minute),     // after a win
		trade(5, 10, 5*time.Hour, 5*time.Minute),      // outside the window
	}

	f := DetectRevengeTrading(trades, nil, cfg)
	assert.Equal(t, 2, f.Count)
	assert.True(t, f.Detected)
	assert.Equal(t, types.SeverityLow, f.Severity)

	cfg.Revenge.RequireSizeIncrease = true
	f = DetectRevengeTrading(trades, nil, cfg)
	assert.Equal(t, 1, f.Count)
	assert.False(t, f.Detected)
}

func TestRevengeTrading_IgnoresOverlappingTrades(t *testing.T) {
	cfg := patternCfg()
	trades := []types.MatchedTrade{
		trade(-50, 10, 0, time.Hour),
		trade(10, 10, 10*time.Minute, time.Minute), // entered before the loser closed
		trade(10, 10, 2*time.Hour, time.Minute),
	}
	f := DetectRevengeTrading(trades, nil, cfg)
	assert.Equal(t, 0, f.Count)
}

func TestRevengeTrading_LossClosingAfterNestedTrade(t *testing.T) {
	cfg := patternCfg()
	cfg.Revenge.MinCount = 0
	cfg.MinTradesForPattern = 1

	trades := []types.MatchedTrade{
		trade(-500, 10, 0, time.Hour),                 // 09:15 to 10:15
		trade(40, 10, 10*time.Minute, 10*time.Minute), // 09:25 to 09:35, inside the loser
		trade(10, 10, 65*time.Minute, 10*time.Minute), // 10:20, five minutes after the loss
	}

	f := DetectRevengeTrading(trades, nil, cfg)
	assert.Equal(t, 1, f.Count)
	assert.True(t, f.Detected)

	// input order does not matter
	f = DetectRevengeTrading([]types.MatchedTrade{trades[2], trades[0], trades[1]}, nil, cfg)
	assert.Equal(t, 1, f.Count)
}

func TestRevengeTrading_ZeroHoldLoss(t *testing.T) {
	cfg := patternCfg()
	cfg.Revenge.MinCount = 0
	cfg.MinTradesForPattern = 1

	trades := []types.MatchedTrade{
		trade(-20, 10, 0, 0),
		trade(5, 10, 0, time.Minute),
	}
	f := DetectRevengeTrading(trades, nil, cfg)
	assert.Equal(t, 1, f.Count, "a trade never counts against itself")
}

func TestScalping(t *testing.T) {
	cfg := patternCfg()
	trades := []types.MatchedTrade{
		trade(1, 1, 0, 2*time.Minute),
		trade(1, 1, time.Hour, 10*time.Minute),
		trade(1, 1, 2*time.Hour, 29*time.Minute),
		trade(1, 1, 3*time.Hour, 30*time.Minute),
	}
	f := DetectScalping(trades, nil, cfg)
	assert.Equal(t, 3, f.Count)
	assert.InDelta(t, 0.75, f.Magnitude, 1e-9)
	assert.True(t, f.Detected)
	assert.Equal(t, types.SeverityMedium, f.Severity)

	f = DetectScalping(trades[:2], nil, cfg)
	assert.False(t, f.Detected, "two trades is below the default floor")
}

func TestPyramiding(t *testing.T) {
	cfg := patternCfg()
	cfg.Pyramiding.MinCount = 2

	execs := []types.Execution{
		exec("A", types.SideBuy, 10, 0),
		exec("A", types.SideBuy, 10, time.Minute),   // add-on
		exec("A", types.SideBuy, 10, 2*time.Minute), // add-on
		exec("A", types.SideSell, 30, 3*time.Minute),
		exec("B", types.SideSell, 5, 4*time.Minute),
		exec("B", types.SideSell, 5, 5*time.Minute), // add-on to a short
		exec("B", types.SideBuy, 5, 6*time.Minute),  // reduces
	}
	f := DetectPyramiding(nil, execs, cfg)
	assert.Equal(t, 3, f.Count)
	assert.True(t, f.Detected)
	assert.Contains(t, f.Description, "most in A (2)")
}

func TestHedging(t *testing.T) {
	cfg := patternCfg()
	cfg.Hedging.MinCount = 1

	execs := []types.Execution{
		exec("NIFTY24SEP25000CE", types.SideBuy, 50, 0),                 // bullish
		exec("NIFTY24SEP25000PE", types.SideBuy, 50, time.Minute),       // bearish vs open call
		exec("NIFTY24SEPFUT", types.SideBuy, 25, 2*time.Minute),         // bullish vs open put
		exec("BANKNIFTY24SEP52000PE", types.SideBuy, 15, 3*time.Minute), // different underlying
		exec("NIFTY24SEP25000PE", types.SideSell, 50, 4*time.Minute),    // closes the put
		exec("NIFTY24SEPFUT", types.SideBuy, 25, 5*time.Minute),         // extends, nothing opposite left
	}
	f := DetectHedging(nil, execs, cfg)
	assert.Equal(t, 2, f.Count)
	assert.True(t, f.Detected)
	assert.Contains(t, f.Description, "NIFTY")
}

func TestHedging_ShortPutIsBullish(t *testing.T) {
	cfg := patternCfg()
	execs := []types.Execution{
		exec("RELIANCE", types.SideBuy, 10, 0),
		exec("RELIANCE24SEP3000PE", types.SideSell, 250, time.Minute),
		exec("RELIANCE24SEP3000CE", types.SideSell, 250, 2*time.Minute),
	}
	f := DetectHedging(nil, execs, cfg)
	assert.Equal(t, 1, f.Count, "only the short call opposes the long stock and short put")
}

func TestDetectAll_Order(t *testing.T) {
	findings := DetectAll(nil, nil, patternCfg())
	require.Len(t, findings, 5)
	want := []string{
		types.PatternOvertrading,
		types.PatternRevenge,
		types.PatternScalping,
		types.PatternPyramiding,
		types.PatternHedging,
	}
	for i, f := range findings {
		assert.Equal(t, want[i], f.Pattern)
		assert.False(t, f.Detected)
		assert.Equal(t, types.SeverityLow, f.Severity)
	}
}
