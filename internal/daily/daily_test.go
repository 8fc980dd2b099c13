package daily

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-persona-analyzer/internal/types"
)

func TestSummarize(t *testing.T) {
	d1 := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	execs := []types.Execution{
		{Timestamp: d1, Symbol: "A"},
		{Timestamp: d1.Add(time.Hour), Symbol: "B"},
		{Timestamp: d2, Symbol: "A"},
	}
	trades := []types.MatchedTrade{
		{ExitTime: d1.Add(time.Hour), PnL: decimal.NewFromInt(50), EntryNotional: decimal.NewFromInt(1000)},
		{ExitTime: d2, PnL: decimal.NewFromInt(-20), EntryNotional: decimal.NewFromInt(400)},
	}

	got := Summarize(execs, trades)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-09-02", got[0].Date)
	assert.Equal(t, 2, got[0].Executions)
	assert.Equal(t, 2, got[0].Symbols)
	assert.Equal(t, 1, got[0].Wins)
	assert.Equal(t, 1, got[1].Losses)

	rets := Returns(got)
	require.Len(t, rets, 2)
	assert.InDelta(t, 0.05, rets[0], 1e-12)
	assert.InDelta(t, -0.05, rets[1], 1e-12)

	assert.Equal(t, []float64{2, 1}, ExecutionsPerDay(execs))
}
