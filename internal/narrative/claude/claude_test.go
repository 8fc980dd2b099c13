package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-persona-analyzer/internal/store"
)

func TestGenerate(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Day "},{"type":"text","text":"trader."}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	cfg := store.LLMConfig{BaseURL: srv.URL, MaxTokens: 500, Temperature: 0.7, TimeoutSeconds: 5}
	g, err := New(cfg, "secret", "")
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "sys", "classify")
	require.NoError(t, err)
	assert.Equal(t, "Day trader.", text)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, "sys", got.System)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "classify", got.Messages[0].Content)
}

func TestGenerate_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	g, err := New(store.LLMConfig{BaseURL: srv.URL, TimeoutSeconds: 5}, "secret", "")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "sys", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Equal(t, 1, calls)
}

func TestGenerate_NoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[],"stop_reason":"max_tokens"}`))
	}))
	defer srv.Close()

	g, err := New(store.LLMConfig{BaseURL: srv.URL, TimeoutSeconds: 5}, "secret", "")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "sys", "p")
	assert.ErrorContains(t, err, "max_tokens")
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(store.LLMConfig{}, "", "https://example.invalid")
	assert.Error(t, err)
}
