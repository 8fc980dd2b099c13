package zerodha

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"

	"trading-persona-analyzer/internal/types"
)

type fakeKite struct {
	trades          kiteconnect.Trades
	instruments     kiteconnect.Instruments
	history         map[int][]kiteconnect.HistoricalData
	instrumentCalls int
	lastInterval    string
	err             error
}

func (f *fakeKite) GetTrades() (kiteconnect.Trades, error) {
	return f.trades, f.err
}

func (f *fakeKite) GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error) {
	f.instrumentCalls++
	return f.instruments, f.err
}

func (f *fakeKite) GetHistoricalData(token int, interval string, from, to time.Time, continuous, oi bool) ([]kiteconnect.HistoricalData, error) {
	f.lastInterval = interval
	return f.history[token], f.err
}

func kiteTime(t time.Time) models.Time { return models.Time{Time: t} }

func TestExecutions(t *testing.T) {
	t0 := time.Date(2024, 9, 2, 3, 45, 0, 0, time.UTC)
	fake := &fakeKite{trades: kiteconnect.Trades{
		{TradingSymbol: "INFY", TransactionType: "SELL", Quantity: 10, AveragePrice: 1510.5, Exchange: "NSE", OrderID: "2", FillTimestamp: kiteTime(t0.Add(time.Minute))},
		{TradingSymbol: "INFY", TransactionType: "BUY", Quantity: 10, AveragePrice: 1500, Exchange: "NSE", OrderID: "1", FillTimestamp: kiteTime(t0)},
	}}
	ist := time.FixedZone("IST", 5*3600+1800)
	k := newWithAPI(Params{Location: ist}, fake)

	execs, err := k.Executions(context.Background())
	require.NoError(t, err)
	require.Len(t, execs, 2)

	assert.Equal(t, types.SideBuy, execs[0].Side)
	assert.Equal(t, "1", execs[0].OrderID)
	assert.Equal(t, int64(10), execs[0].Quantity)
	assert.Equal(t, "15000", execs[0].TradeValue.String())
	assert.Equal(t, 9, execs[0].Timestamp.Hour())
	assert.Equal(t, "1510.5", execs[1].Price.String())
	for _, e := range execs {
		assert.NoError(t, e.Validate())
	}
}

func TestExecutions_BadSide(t *testing.T) {
	fake := &fakeKite{trades: kiteconnect.Trades{{TradingSymbol: "INFY", TransactionType: "HOLD", Quantity: 1, AveragePrice: 1}}}
	_, err := newWithAPI(Params{}, fake).Executions(context.Background())

	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Row)
	assert.ErrorIs(t, err, types.ErrUnknownSide)
}

func TestDailyCandles(t *testing.T) {
	d := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	fake := &fakeKite{
		instruments: kiteconnect.Instruments{
			{InstrumentToken: 256265, Tradingsymbol: "NIFTY 50"},
			{InstrumentToken: 408065, Tradingsymbol: "INFY"},
		},
		history: map[int][]kiteconnect.HistoricalData{
			408065: {
				{Date: kiteTime(d.AddDate(0, 0, 1)), Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 200},
				{Date: kiteTime(d), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
			},
		},
	}
	k := newWithAPI(Params{}, fake)

	candles, err := k.DailyCandles(context.Background(), "infy", d.AddDate(0, -1, 0), d.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].Date.Equal(d))
	assert.Equal(t, 200.0, candles[1].Volume)
	assert.Equal(t, "day", fake.lastInterval)

	_, err = k.DailyCandles(context.Background(), "NIFTY 50", d, d)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.instrumentCalls)
	assert.Equal(t, "NIFTY 50", k.mapper.getSymbol(256265))

	_, err = k.DailyCandles(context.Background(), "UNKNOWN", d, d)
	assert.ErrorContains(t, err, "no NSE instrument")
}

func TestDailyCandles_InstrumentFailure(t *testing.T) {
	k := newWithAPI(Params{Exchange: "bse"}, &fakeKite{err: errors.New("token expired")})
	_, err := k.DailyCandles(context.Background(), "INFY", time.Now(), time.Now())
	assert.ErrorContains(t, err, "kite instruments bse")
	assert.False(t, k.mapper.isLoaded())
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Params{APIKey: "k"})
	assert.Error(t, err)
}
