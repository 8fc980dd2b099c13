package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_POSTJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("access-token"))
		assert.Equal(t, "1", r.Header.Get("X-Call"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHeader("access-token", "secret"))
	resp, err := c.POST(context.Background(), "/v2/echo", map[string]int{"page": 0}, map[string]string{"X-Call": "1"})
	require.NoError(t, err)

	var out struct{ OK bool }
	require.NoError(t, resp.ParseJSON(&out))
	assert.True(t, out.OK)
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).GET(context.Background(), "/")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.False(t, httpErr.Temporary())
}

func TestDoWithRetry(t *testing.T) {
	fast := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}

	t.Run("recovers from server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte("done"))
		}))
		defer srv.Close()

		c := NewClient(WithBaseURL(srv.URL))
		resp, err := c.DoWithRetry(NewRequest(context.Background(), http.MethodGet, "/"), fast)
		require.NoError(t, err)
		assert.Equal(t, "done", resp.String())
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewClient(WithBaseURL(srv.URL))
		_, err := c.DoWithRetry(NewRequest(context.Background(), http.MethodGet, "/"), fast)
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient(WithBaseURL(srv.URL))
		_, err := c.DoWithRetry(NewRequest(context.Background(), http.MethodGet, "/"), fast)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "all 3 retry attempts failed")
	})
}
