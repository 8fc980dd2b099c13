// Package zerodha reads a trader's tradebook and daily candles from Kite Connect.
package zerodha

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/types"
)

// kiteAPI is the subset of *kiteconnect.Client this package calls.
type kiteAPI interface {
	GetTrades() (kiteconnect.Trades, error)
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string         // instrument lookup for candles, NSE by default
	Location    *time.Location // tradebook timestamps are converted into this zone
}

// Kite implements both ExecutionSource and CandleProvider.
type Kite struct {
	p      Params
	kc     kiteAPI
	mapper *instrumentMapper
	loadMu sync.Mutex
}

var (
	_ interfaces.ExecutionSource = (*Kite)(nil)
	_ interfaces.CandleProvider  = (*Kite)(nil)
)

func New(p Params) (*Kite, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("missing API key/access token")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return newWithAPI(p, kc), nil
}

func newWithAPI(p Params, kc kiteAPI) *Kite {
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	return &Kite{p: p, kc: kc, mapper: newInstrumentMapper()}
}

// Executions returns the day's tradebook as executions, oldest first. Kite
// only serves the current trading day through this endpoint.
func (k *Kite) Executions(ctx context.Context) ([]types.Execution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trades, err := k.kc.GetTrades()
	if err != nil {
		return nil, fmt.Errorf("kite tradebook: %w", err)
	}

	out := make([]types.Execution, 0, len(trades))
	for i, t := range trades {
		side, err := types.ParseSide(t.TransactionType)
		if err != nil {
			return nil, &types.ValidationError{Row: i + 1, Symbol: t.TradingSymbol, Field: "transaction_type", Err: err}
		}
		ts := t.FillTimestamp.Time
		if ts.IsZero() {
			ts = t.ExchangeTimestamp.Time
		}
		qty := int64(t.Quantity)
		price := decimal.NewFromFloat(t.AveragePrice)
		out = append(out, types.Execution{
			Timestamp:  ts.In(k.p.Location),
			Symbol:     t.TradingSymbol,
			Side:       side,
			Quantity:   qty,
			Price:      price,
			TradeValue: price.Mul(decimal.NewFromInt(qty)),
			Exchange:   t.Exchange,
			OrderID:    t.OrderID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	logger.Debug(ctx, "Kite tradebook fetched", "executions", len(out))
	return out, nil
}

// DailyCandles fetches day candles for symbol between from and to.
func (k *Kite) DailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]types.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := k.ensureInstruments(ctx); err != nil {
		return nil, err
	}
	token, ok := k.mapper.getToken(symbol)
	if !ok {
		return nil, fmt.Errorf("no %s instrument for %s", k.p.Exchange, symbol)
	}

	data, err := k.kc.GetHistoricalData(token, "day", from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("kite historical %s: %w", symbol, err)
	}
	candles := make([]types.Candle, 0, len(data))
	for _, d := range data {
		candles = append(candles, types.Candle{
			Date:   d.Date.Time,
			Open:   d.Open,
			High:   d.High,
			Low:    d.Low,
			Close:  d.Close,
			Volume: float64(d.Volume),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })
	return candles, nil
}

func (k *Kite) ensureInstruments(ctx context.Context) error {
	if k.mapper.isLoaded() {
		return nil
	}
	k.loadMu.Lock()
	defer k.loadMu.Unlock()
	if k.mapper.isLoaded() {
		return nil
	}

	instruments, err := k.kc.GetInstrumentsByExchange(strings.ToUpper(k.p.Exchange))
	if err != nil {
		return fmt.Errorf("kite instruments %s: %w", k.p.Exchange, err)
	}
	k.mapper.load(instruments)
	logger.Info(ctx, "Kite instruments loaded", "exchange", k.p.Exchange, "count", k.mapper.size())
	return nil
}
