package trend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/types"
)

// CachedProvider serves candles from a cache and fills it on a miss.
type CachedProvider struct {
	inner interfaces.CandleProvider
	cache interfaces.Cache
}

var _ interfaces.CandleProvider = (*CachedProvider)(nil)

// WithCache wraps p with c. A nil cache returns p unchanged.
func WithCache(p interfaces.CandleProvider, c interfaces.Cache) interfaces.CandleProvider {
	if c == nil {
		return p
	}
	return &CachedProvider{inner: p, cache: c}
}

func (p *CachedProvider) DailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]types.Candle, error) {
	key := MakeKey(symbol, from.Format(time.DateOnly), to.Format(time.DateOnly))

	if data, ok, err := p.cache.Get(ctx, key); err != nil {
		logger.Warn(ctx, "Candle cache read failed", "symbol", symbol, "error", err)
	} else if ok {
		var candles []types.Candle
		if err := json.Unmarshal(data, &candles); err == nil {
			return candles, nil
		}
	}

	candles, err := p.inner.DailyCandles(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(candles); err == nil {
		if err := p.cache.Set(ctx, key, data); err != nil {
			logger.Warn(ctx, "Candle cache write failed", "symbol", symbol, "error", err)
		}
	}
	return candles, nil
}

// CSVProvider reads daily candles from <dir>/<SYMBOL>.csv with a
// date,open,high,low,close,volume header. Spaces in the symbol become
// underscores in the file name.
type CSVProvider struct {
	dir string
}

var _ interfaces.CandleProvider = (*CSVProvider)(nil)

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

type candleRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

func (p *CSVProvider) DailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]types.Candle, error) {
	name := strings.ReplaceAll(strings.ToUpper(symbol), " ", "_") + ".csv"
	f, err := os.Open(filepath.Join(p.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*candleRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	lo, hi := startOfDay(from), startOfDay(to)
	candles := make([]types.Candle, 0, len(rows))
	for i, r := range rows {
		d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(r.Date), from.Location())
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad date %q", name, i+2, r.Date)
		}
		if d.Before(lo) || d.After(hi) {
			continue
		}
		candles = append(candles, types.Candle{
			Date: d, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })
	return candles, nil
}
