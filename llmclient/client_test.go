package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sales-assistant/config"
	"sales-assistant/web/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(host string) *config.Config {
	return &config.Config{
		MainLLMHost:       host,
		AssistantModel:    "gpt-4o",
		EmbeddingModel:    "embed",
		MaxRetries:        3,
		RetryDelaySeconds: time.Millisecond,
		LLMRequestTimeout: 5 * time.Second,
	}
}

func TestChatRetriesOnServiceUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "Ставка 18%"}}},
		})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), zap.NewNop())
	out, err := c.Chat(context.Background(), []types.AgentMessage{{Role: "user", Content: "ставка?"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ставка 18%", out)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestChatContextWindowExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"context_length_exceeded"}}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), zap.NewNop())
	_, err := c.Chat(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrContextWindowExceeded)
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), zap.NewNop())
	vec, err := c.Embed(context.Background(), "вклад")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}
