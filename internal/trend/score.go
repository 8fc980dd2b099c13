// Package trend attaches EMA trend context to matched trades.
package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/markcheno/go-talib"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/types"
)

// MinBars is the number of daily closes needed before the 100-period EMA is usable.
const MinBars = 100

// Score rates a close against its 21/50/100 EMAs. Each comparison adds or
// subtracts one point, giving a value in [-6, +6].
func Score(price, ema21, ema50, ema100 float64) int {
	score := 0
	score += point(price > ema21)
	score += point(price > ema50)
	score += point(price > ema100)
	score += point(ema21 > ema100)
	score += point(ema21 > ema50)
	score += point(ema50 > ema100)
	return score
}

func point(up bool) int {
	if up {
		return 1
	}
	return -1
}

// EMAScorer computes trend scores from daily candles.
type EMAScorer struct {
	candles      interfaces.CandleProvider
	aliases      map[string]string
	lookbackDays int
}

var _ interfaces.TrendSource = (*EMAScorer)(nil)

// NewEMAScorer builds a scorer. aliases maps a grouping symbol such as NIFTY
// to the name the candle provider knows it by.
func NewEMAScorer(candles interfaces.CandleProvider, aliases map[string]string, lookbackDays int) *EMAScorer {
	if lookbackDays < MinBars {
		lookbackDays = 300
	}
	return &EMAScorer{candles: candles, aliases: aliases, lookbackDays: lookbackDays}
}

// TrendScore scores symbol using only candles dated strictly before date.
func (s *EMAScorer) TrendScore(ctx context.Context, symbol string, date time.Time) (int, error) {
	name := symbol
	if alias, ok := s.aliases[symbol]; ok {
		name = alias
	}

	day := startOfDay(date)
	candles, err := s.candles.DailyCandles(ctx, name, day.AddDate(0, 0, -s.lookbackDays), day.AddDate(0, 0, -1))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", types.ErrTrendUnavailable, name, err)
	}

	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		if c.Date.Before(day) {
			closes = append(closes, c.Close)
		}
	}
	if len(closes) < MinBars {
		return 0, fmt.Errorf("%w: %s has %d daily candles before %s, need %d",
			types.ErrTrendUnavailable, name, len(closes), day.Format(time.DateOnly), MinBars)
	}

	last := len(closes) - 1
	ema21 := talib.Ema(closes, 21)
	ema50 := talib.Ema(closes, 50)
	ema100 := talib.Ema(closes, 100)
	return Score(closes[last], ema21[last], ema50[last], ema100[last]), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
