package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sales-assistant/config"
	"sales-assistant/web/types"

	"go.uber.org/zap"
)

// ErrContextWindowExceeded is returned when the model reports the prompt
// exceeds the available context size.
var ErrContextWindowExceeded = errors.New("context window exceeded")

type chatRequest struct {
	Model       string               `json:"model,omitempty"`
	Messages    []types.AgentMessage `json:"messages"`
	Stream      bool                 `json:"stream"`
	Temperature *float64             `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message types.AgentMessage `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.LLMRequestTimeout},
		logger:     logger,
	}
}

// Chat performs a non-streaming chat completion call against the main host.
// temperature is optional; pass nil to use server default.
func (c *Client) Chat(ctx context.Context, messages []types.AgentMessage, temperature *float64) (string, error) {
	body, err := c.post(ctx, c.cfg.MainLLMHost, "/v1/chat/completions", chatRequest{
		Model:       c.cfg.AssistantModel,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("no response choices from llm server")
	}
	return cr.Choices[0].Message.Content, nil
}

// Embed generates an embedding vector for text using the embedding host.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	host := c.cfg.EmbeddingLLMHost
	if host == "" {
		host = c.cfg.MainLLMHost
	}
	body, err := c.post(ctx, host, "/v1/embeddings", embeddingRequest{
		Model: c.cfg.EmbeddingModel,
		Input: text,
	})
	if err != nil {
		return nil, err
	}

	var er embeddingResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(er.Data) == 0 || len(er.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return er.Data[0].Embedding, nil
}

// post sends a JSON request, retrying while the server reports 503 (model
// loading) or the transport fails, and returns the 200 response body.
func (c *Client) post(ctx context.Context, host, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := strings.TrimRight(host, "/") + path

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.LLMAPIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.LLMAPIKey)
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			// Do not retry on context cancellation/deadline
			if ctx.Err() != nil {
				break
			}
			if !c.backoffSleep(ctx, attempt) {
				break
			}
			continue
		}
		if r.StatusCode == http.StatusServiceUnavailable {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			lastErr = fmt.Errorf("llm server status %s", r.Status)
			c.logger.Warn("LLM service unavailable, retrying",
				zap.String("path", path),
				zap.Int("attempt", attempt+1))
			if !c.backoffSleep(ctx, attempt) {
				break
			}
			continue
		}
		resp = r
		break
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from LLM server: %w", lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if strings.Contains(string(bodyBytes), "exceeds the available context size") ||
			strings.Contains(string(bodyBytes), "context_length_exceeded") {
			return nil, ErrContextWindowExceeded
		}
		return nil, fmt.Errorf("llm server status %s: %s", resp.Status, string(bodyBytes))
	}
	return bodyBytes, nil
}

// backoffSleep waits with exponential backoff and jitter. It returns false
// when ctx ends first.
func (c *Client) backoffSleep(ctx context.Context, attempt int) bool {
	base := c.cfg.RetryDelaySeconds
	if base <= 0 {
		base = time.Second
	}
	d := base * time.Duration(1<<attempt)
	maxWait := c.cfg.LLMBackoffMaxSeconds
	if maxWait > 0 && d > maxWait {
		d = maxWait
	}
	jitterRatio := c.cfg.LLMBackoffJitterRatio
	if jitterRatio < 0 || jitterRatio > 1 {
		jitterRatio = 0.1
	}
	jitter := time.Duration(float64(d) * jitterRatio)
	wait := d - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter+1))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
