// Package dhan pulls historical trades from the Dhan trading API.
package dhan

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trading-persona-analyzer/internal/api"
	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/types"
)

const (
	DefaultBaseURL = "https://api.dhan.co"
	maxPages       = 500
)

// tradeDateLayouts are tried in order; the API has returned both forms.
var tradeDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

type Params struct {
	AccessToken string
	ClientID    string
	BaseURL     string
	From, To    time.Time
	Location    *time.Location
}

type Client struct {
	p      Params
	client *api.Client
}

var _ interfaces.ExecutionSource = (*Client)(nil)

func New(p Params) (*Client, error) {
	if p.AccessToken == "" {
		return nil, fmt.Errorf("DHAN_ACCESS_TOKEN missing")
	}
	if p.From.IsZero() || p.To.IsZero() || p.To.Before(p.From) {
		return nil, fmt.Errorf("invalid date range %s..%s", p.From.Format(time.DateOnly), p.To.Format(time.DateOnly))
	}
	if p.BaseURL == "" {
		p.BaseURL = DefaultBaseURL
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	opts := []api.ClientOption{
		api.WithBaseURL(strings.TrimRight(p.BaseURL, "/")),
		api.WithHeader("access-token", p.AccessToken),
		api.WithTimeout(30 * time.Second),
		api.WithLogging(true),
	}
	if p.ClientID != "" {
		opts = append(opts, api.WithHeader("client-id", p.ClientID))
	}
	return &Client{p: p, client: api.NewClient(opts...)}, nil
}

type pageRequest struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
	Page     int    `json:"page"`
}

type trade struct {
	TradeDate       string  `json:"tradeDate"`
	TradingSymbol   string  `json:"tradingSymbol"`
	TransactionType string  `json:"transactionType"`
	TradedPrice     float64 `json:"tradedPrice"`
	TradedQuantity  int64   `json:"tradedQuantity"`
	ExchangeSegment string  `json:"exchangeSegment"`
	OrderID         string  `json:"orderId"`
	Charges         float64 `json:"totalCharges"`
}

type pageResponse struct {
	Data []trade `json:"data"`
}

// Executions fetches pages until the API returns an empty one.
func (c *Client) Executions(ctx context.Context) ([]types.Execution, error) {
	var out []types.Execution
	body := pageRequest{
		FromDate: c.p.From.Format(time.DateOnly),
		ToDate:   c.p.To.Format(time.DateOnly),
	}

	for page := 0; page < maxPages; page++ {
		body.Page = page
		req := api.NewRequest(ctx, http.MethodPost, "/v2/trades/historical").WithBody(body)
		resp, err := c.client.DoWithRetry(req, api.DefaultRetryConfig())
		if err != nil {
			return nil, fmt.Errorf("dhan trades page %d: %w", page, err)
		}
		var pr pageResponse
		if err := resp.ParseJSON(&pr); err != nil {
			return nil, fmt.Errorf("dhan trades page %d: %w", page, err)
		}
		if len(pr.Data) == 0 {
			logger.Info(ctx, "Dhan trades fetched", "pages", page, "executions", len(out))
			return out, nil
		}
		for _, t := range pr.Data {
			e, err := c.convert(t)
			if err != nil {
				return nil, &types.ValidationError{Row: len(out) + 1, Symbol: t.TradingSymbol, Field: "tradeDate", Err: err}
			}
			out = append(out, e)
		}
		logger.Debug(ctx, "Fetched Dhan page", "page", page+1, "total", len(out))
	}
	return nil, fmt.Errorf("dhan trades: gave up after %d pages", maxPages)
}

func (c *Client) convert(t trade) (types.Execution, error) {
	ts, err := parseTradeDate(t.TradeDate, c.p.Location)
	if err != nil {
		return types.Execution{}, err
	}
	// An unknown side is left empty and rejected later by validation.
	side, _ := types.ParseSide(t.TransactionType)
	price := decimal.NewFromFloat(t.TradedPrice)
	return types.Execution{
		Timestamp:  ts,
		Symbol:     t.TradingSymbol,
		Side:       side,
		Quantity:   t.TradedQuantity,
		Price:      price,
		Charges:    decimal.NewFromFloat(t.Charges),
		TradeValue: price.Mul(decimal.NewFromInt(t.TradedQuantity)),
		Exchange:   t.ExchangeSegment,
		OrderID:    t.OrderID,
	}, nil
}

func parseTradeDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range tradeDateLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized trade date %q", s)
}
