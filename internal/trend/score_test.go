package trend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-persona-analyzer/internal/types"
)

var tradeDay = time.Date(2024, 9, 16, 10, 30, 0, 0, time.UTC)

// seriesProvider returns one candle per day ending the day before tradeDay,
// with closes produced by price(i) for i = 0..n-1, oldest first.
type seriesProvider struct {
	n      int
	price  func(i int) float64
	extra  []types.Candle
	calls  int
	asked  []string
	failed error
}

func (p *seriesProvider) DailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]types.Candle, error) {
	p.calls++
	p.asked = append(p.asked, symbol)
	if p.failed != nil {
		return nil, p.failed
	}
	end := startOfDay(tradeDay).AddDate(0, 0, -1)
	out := make([]types.Candle, 0, p.n+len(p.extra))
	for i := 0; i < p.n; i++ {
		out = append(out, types.Candle{Date: end.AddDate(0, 0, i-p.n+1), Close: p.price(i)})
	}
	return append(out, p.extra...), nil
}

func TestScore(t *testing.T) {
	assert.Equal(t, 6, Score(110, 105, 100, 95))
	assert.Equal(t, -6, Score(90, 95, 100, 105))
	assert.Equal(t, -2, Score(100, 99, 101, 100.5)) // +1 -1 -1, -1 -1 +1
}

func TestEMAScorer_Trends(t *testing.T) {
	up := &seriesProvider{n: 150, price: func(i int) float64 { return 100 + float64(i) }}
	score, err := NewEMAScorer(up, nil, 300).TrendScore(context.Background(), "INFY", tradeDay)
	require.NoError(t, err)
	assert.Equal(t, 6, score)

	down := &seriesProvider{n: 150, price: func(i int) float64 { return 500 - float64(i) }}
	score, err = NewEMAScorer(down, nil, 300).TrendScore(context.Background(), "INFY", tradeDay)
	require.NoError(t, err)
	assert.Equal(t, -6, score)
}

func TestEMAScorer_IgnoresCandlesOnOrAfterTradeDay(t *testing.T) {
	p := &seriesProvider{
		n:     150,
		price: func(i int) float64 { return 100 + float64(i) },
		extra: []types.Candle{{Date: startOfDay(tradeDay), Close: 1}, {Date: startOfDay(tradeDay).AddDate(0, 0, 1), Close: 1}},
	}
	score, err := NewEMAScorer(p, nil, 300).TrendScore(context.Background(), "INFY", tradeDay)
	require.NoError(t, err)
	assert.Equal(t, 6, score, "a crash on the trade day must not leak into the score")
}

func TestEMAScorer_Unavailable(t *testing.T) {
	short := &seriesProvider{n: 99, price: func(i int) float64 { return 100 }}
	_, err := NewEMAScorer(short, nil, 300).TrendScore(context.Background(), "INFY", tradeDay)
	require.ErrorIs(t, err, types.ErrTrendUnavailable)
	assert.Contains(t, err.Error(), "99 daily candles")

	broken := &seriesProvider{failed: errors.New("boom")}
	_, err = NewEMAScorer(broken, nil, 300).TrendScore(context.Background(), "INFY", tradeDay)
	require.ErrorIs(t, err, types.ErrTrendUnavailable)
}

func TestEMAScorer_UsesAliases(t *testing.T) {
	p := &seriesProvider{n: 120, price: func(i int) float64 { return 100 + float64(i) }}
	s := NewEMAScorer(p, map[string]string{"NIFTY": "NIFTY 50"}, 300)
	_, err := s.TrendScore(context.Background(), "NIFTY", tradeDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"NIFTY 50"}, p.asked)
}
