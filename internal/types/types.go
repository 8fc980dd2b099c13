package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts BUY/SELL and the single-letter broker forms B/S in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B":
		return SideBuy, nil
	case "SELL", "S":
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
	}
}

func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// Sign is +1 for BUY and -1 for SELL.
func (s Side) Sign() int64 {
	if s == SideBuy {
		return 1
	}
	return -1
}

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// DirectionOf maps the side of the opening lot to the trade direction.
func DirectionOf(entry Side) Direction {
	if entry == SideSell {
		return Short
	}
	return Long
}

// Execution is one cleaned fill from a tradebook.
type Execution struct {
	Timestamp  time.Time       `json:"timestamp"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Charges    decimal.Decimal `json:"charges"`
	TradeValue decimal.Decimal `json:"trade_value"`
	Exchange   string          `json:"exchange,omitempty"`
	OrderID    string          `json:"order_id,omitempty"`
}

// Notional returns TradeValue when set, else quantity x price.
func (e Execution) Notional() decimal.Decimal {
	if !e.TradeValue.IsZero() {
		return e.TradeValue
	}
	return e.Price.Mul(decimal.NewFromInt(e.Quantity))
}

// Validate checks the per-record invariants the pipeline depends on.
func (e Execution) Validate() error {
	switch {
	case strings.TrimSpace(e.Symbol) == "":
		return &ValidationError{Symbol: e.Symbol, Field: "symbol", Err: ErrMissingField}
	case e.Timestamp.IsZero():
		return &ValidationError{Symbol: e.Symbol, Field: "timestamp", Err: ErrMissingField}
	case !e.Side.Valid():
		return &ValidationError{Symbol: e.Symbol, Field: "side", Err: ErrUnknownSide}
	case e.Quantity <= 0:
		return &ValidationError{Symbol: e.Symbol, Field: "quantity", Err: ErrNonPositiveQuantity}
	case !e.Price.IsPositive():
		return &ValidationError{Symbol: e.Symbol, Field: "price", Err: ErrNonPositivePrice}
	case e.Charges.IsNegative():
		return &ValidationError{Symbol: e.Symbol, Field: "charges", Err: ErrNegativeCharges}
	}
	return nil
}

// MatchedTrade is a closed round trip produced by FIFO lot matching.
type MatchedTrade struct {
	Symbol         string          `json:"symbol"`
	Direction      Direction       `json:"direction"`
	EntrySide      Side            `json:"entry_side"`
	EntryTime      time.Time       `json:"entry_time"`
	EntryPrice     decimal.Decimal `json:"entry_price"`
	ExitTime       time.Time       `json:"exit_time"`
	ExitPrice      decimal.Decimal `json:"exit_price"`
	Quantity       int64           `json:"quantity"`
	GrossPnL       decimal.Decimal `json:"gross_pnl"`
	Charges        decimal.Decimal `json:"charges"`
	PnL            decimal.Decimal `json:"pnl"`
	EntryNotional  decimal.Decimal `json:"entry_notional"`
	TradeValue     decimal.Decimal `json:"trade_value"`
	HoldingMinutes float64         `json:"holding_minutes"`
	EntryIndex     int             `json:"entry_index"`
	ExitIndex      int             `json:"exit_index"`
}

// PnLFloat is the realized net P&L as float64 for statistics.
func (t MatchedTrade) PnLFloat() float64 { return t.PnL.InexactFloat64() }

// OpenLot is quantity still waiting for an opposite execution.
type OpenLot struct {
	Symbol            string          `json:"symbol"`
	Side              Side            `json:"side"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	EntryPrice        decimal.Decimal `json:"entry_price"`
	EntryTime         time.Time       `json:"entry_time"`
	ChargesPerUnit    decimal.Decimal `json:"charges_per_unit"`
	EntryIndex        int             `json:"entry_index"`
}

type PairingResult struct {
	Trades   []MatchedTrade `json:"trades"`
	OpenLots []OpenLot      `json:"open_lots"`
}

// Candle is one daily OHLCV bar.
type Candle struct {
	Date   time.Time `json:"date" csv:"-"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}
