// Package ingest loads tradebook CSV files into validated executions.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

// headerAliases maps accepted column names onto the canonical set.
var headerAliases = map[string]string{
	"trade_date":           "trade_date",
	"timestamp":            "trade_date",
	"date":                 "trade_date",
	"time":                 "trade_date",
	"order_execution_time": "trade_date",
	"symbol":               "symbol",
	"tradingsymbol":        "symbol",
	"trading_symbol":       "symbol",
	"transaction_type":     "transaction_type",
	"side":                 "transaction_type",
	"trade_type":           "transaction_type",
	"quantity":             "quantity",
	"qty":                  "quantity",
	"price":                "price",
	"trade_price":          "price",
	"average_price":        "price",
	"charges":              "charges",
	"fees":                 "charges",
	"brokerage":            "charges",
	"trade_value":          "trade_value",
	"value":                "trade_value",
	"exchange":             "exchange",
	"order_id":             "order_id",
	"orderid":              "order_id",
}

var requiredColumns = []string{"trade_date", "symbol", "transaction_type", "quantity", "price"}

// row is one CSV record before parsing; every field stays text so that
// errors can name the row and column.
type row struct {
	TradeDate  string `csv:"trade_date"`
	Symbol     string `csv:"symbol"`
	Side       string `csv:"transaction_type"`
	Quantity   string `csv:"quantity"`
	Price      string `csv:"price"`
	Charges    string `csv:"charges"`
	TradeValue string `csv:"trade_value"`
	Exchange   string `csv:"exchange"`
	OrderID    string `csv:"order_id"`
}

// Tradebook is one loaded source of executions.
type Tradebook struct {
	Executions []types.Execution
	// Reordered counts rows timestamped earlier than the row before them in
	// the source. Non-zero only when the loader sorted them.
	Reordered int
}

// Warnings describes how the loader changed the source order, if at all.
func (b Tradebook) Warnings() []string {
	if b.Reordered == 0 {
		return nil
	}
	return []string{fmt.Sprintf("%d executions were out of timestamp order in the source and were re-sorted", b.Reordered)}
}

type Loader struct {
	loc        *time.Location
	layouts    []string
	sortByTime bool
}

func NewLoader(cfg store.InputConfig) (*Loader, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, &types.ConfigError{Option: "input.timezone", Reason: err.Error()}
	}
	layouts := cfg.TimeLayouts
	if len(layouts) == 0 {
		layouts = []string{time.RFC3339, "2006-01-02 15:04:05"}
	}
	return &Loader{loc: loc, layouts: layouts, sortByTime: cfg.SortByTime}, nil
}

func (l *Loader) LoadFile(ctx context.Context, path string) (Tradebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tradebook{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	book, err := l.Read(ctx, f)
	if err != nil {
		return Tradebook{}, fmt.Errorf("%s: %w", path, err)
	}
	return book, nil
}

// Read parses a tradebook. The first invalid row aborts the load with a
// *types.ValidationError; nothing is dropped silently.
func (l *Loader) Read(ctx context.Context, r io.Reader) (Tradebook, error) {
	normalized, err := normalizeHeader(r)
	if err != nil {
		return Tradebook{}, err
	}

	var rows []row
	if err := gocsv.Unmarshal(normalized, &rows); err != nil {
		return Tradebook{}, fmt.Errorf("failed to decode CSV: %w", err)
	}

	execs := make([]types.Execution, 0, len(rows))
	for i, rec := range rows {
		e, err := l.parse(rec)
		if err == nil {
			err = e.Validate()
		}
		if err != nil {
			var ve *types.ValidationError
			if errors.As(err, &ve) {
				ve.Row = i + 1
				return Tradebook{}, ve
			}
			return Tradebook{}, &types.ValidationError{Row: i + 1, Symbol: rec.Symbol, Field: "row", Err: err}
		}
		execs = append(execs, e)
	}

	book := Tradebook{Executions: execs}
	if l.sortByTime {
		for i := 1; i < len(execs); i++ {
			if execs[i].Timestamp.Before(execs[i-1].Timestamp) {
				book.Reordered++
			}
		}
		if book.Reordered > 0 {
			sort.SliceStable(execs, byTime(execs))
			logger.Warn(ctx, "Executions re-ordered by timestamp", "rows", len(execs), "out_of_order", book.Reordered)
		}
	}

	logger.Debug(ctx, "Executions loaded", "rows", len(execs))
	return book, nil
}

func byTime(execs []types.Execution) func(i, j int) bool {
	return func(i, j int) bool { return execs[i].Timestamp.Before(execs[j].Timestamp) }
}

func (l *Loader) parse(rec row) (types.Execution, error) {
	symbol := strings.ToUpper(strings.TrimSpace(rec.Symbol))
	fail := func(field string, err error) (types.Execution, error) {
		return types.Execution{}, &types.ValidationError{Symbol: symbol, Field: field, Err: err}
	}

	var ts time.Time
	if strings.TrimSpace(rec.TradeDate) != "" {
		var err error
		if ts, err = l.parseTime(rec.TradeDate); err != nil {
			return fail("trade_date", err)
		}
	}

	var side types.Side
	if strings.TrimSpace(rec.Side) != "" {
		var err error
		if side, err = types.ParseSide(rec.Side); err != nil {
			return fail("transaction_type", err)
		}
	}

	qty, err := parseDecimal(rec.Quantity)
	if err != nil {
		return fail("quantity", err)
	}
	if !qty.Equal(qty.Truncate(0)) {
		return fail("quantity", fmt.Errorf("fractional quantity %s", qty))
	}
	price, err := parseDecimal(rec.Price)
	if err != nil {
		return fail("price", err)
	}
	charges, err := parseDecimal(rec.Charges)
	if err != nil {
		return fail("charges", err)
	}
	value, err := parseDecimal(rec.TradeValue)
	if err != nil {
		return fail("trade_value", err)
	}
	if value.IsZero() {
		value = price.Mul(qty)
	}

	return types.Execution{
		Timestamp:  ts,
		Symbol:     symbol,
		Side:       side,
		Quantity:   qty.IntPart(),
		Price:      price,
		Charges:    charges,
		TradeValue: value,
		Exchange:   strings.ToUpper(strings.TrimSpace(rec.Exchange)),
		OrderID:    strings.TrimSpace(rec.OrderID),
	}, nil
}

func (l *Loader) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range l.layouts {
		if ts, err := time.ParseInLocation(layout, s, l.loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q matches none of %d layouts", s, len(l.layouts))
}

// parseDecimal reads a number that may carry thousands separators. Blank is zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	return d, nil
}

// normalizeHeader rewrites the header row to canonical column names and
// checks that the required columns are present.
func normalizeHeader(r io.Reader) (io.Reader, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, &types.ValidationError{Field: "header", Err: types.ErrMissingField}
	}

	seen := map[string]bool{}
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if canonical, ok := headerAliases[key]; ok && !seen[canonical] {
			key = canonical
			seen[canonical] = true
		}
		records[0][i] = key
	}
	for _, col := range requiredColumns {
		if !seen[col] {
			return nil, &types.ValidationError{Field: col, Err: types.ErrMissingField}
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return &buf, nil
}
