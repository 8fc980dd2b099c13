package dhan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-persona-analyzer/internal/types"
)

var (
	from = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
)

func TestExecutions_Pages(t *testing.T) {
	var pages []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/trades/historical", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("access-token"))
		assert.Equal(t, "cid", r.Header.Get("client-id"))

		var req pageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2024-09-01", req.FromDate)
		pages = append(pages, req.Page)

		if req.Page >= 2 {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		fmt.Fprintf(w, `{"data":[{"tradeDate":"2024-09-0%d 09:30:00","tradingSymbol":"INFY","transactionType":"BUY","tradedPrice":1500.5,"tradedQuantity":4,"exchangeSegment":"NSE_EQ","orderId":"o%d"}]}`, req.Page+2, req.Page)
	}))
	defer srv.Close()

	c, err := New(Params{AccessToken: "tok", ClientID: "cid", BaseURL: srv.URL, From: from, To: to})
	require.NoError(t, err)

	execs, err := c.Executions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, pages)
	require.Len(t, execs, 2)
	assert.Equal(t, types.SideBuy, execs[0].Side)
	assert.Equal(t, "6002", execs[0].TradeValue.String())
	assert.Equal(t, 3, execs[1].Timestamp.Day())
	assert.Equal(t, "o1", execs[1].OrderID)
}

func TestExecutions_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(Params{AccessToken: "tok", BaseURL: srv.URL, From: from, To: to})
	require.NoError(t, err)
	_, err = c.Executions(context.Background())
	assert.ErrorContains(t, err, "HTTP 401")
}

func TestExecutions_BadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"tradeDate":"02/09/2024","tradingSymbol":"INFY","transactionType":"SELL","tradedPrice":1,"tradedQuantity":1}]}`))
	}))
	defer srv.Close()

	c, err := New(Params{AccessToken: "tok", BaseURL: srv.URL, From: from, To: to})
	require.NoError(t, err)
	_, err = c.Executions(context.Background())

	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "INFY", ve.Symbol)
}

func TestNew_Validates(t *testing.T) {
	_, err := New(Params{From: from, To: to})
	assert.Error(t, err)
	_, err = New(Params{AccessToken: "tok", From: to, To: from})
	assert.Error(t, err)
}

func TestParseTradeDate(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	ts, err := parseTradeDate("2024-09-02T10:15:00", ist)
	require.NoError(t, err)
	assert.Equal(t, 10, ts.Hour())
	assert.Equal(t, ist, ts.Location())
}
