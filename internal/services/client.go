package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/room-director/internal/config"
	"github.com/jwebster45206/room-director/pkg/chat"
)

const rawExcerptLimit = 800

// Client is a small reusable client for OpenAI-compatible /chat/completions
// endpoints: retries with jittered backoff within a provider, tolerant JSON
// extraction, and ordered multi-provider fallback.
type Client struct {
	timeout       time.Duration
	maxAttempts   int
	temperature   float64
	noTemperature map[string]bool
	httpClient    *http.Client
	logger        *slog.Logger
}

var _ LLM = (*Client)(nil)

// NewClient builds a client from config. Models listed in
// cfg.NoTemperatureModels never receive a temperature parameter.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	noTemp := make(map[string]bool, len(cfg.NoTemperatureModels))
	for _, m := range cfg.NoTemperatureModels {
		noTemp[m] = true
	}
	return &Client{
		timeout:       cfg.LLMTimeout,
		maxAttempts:   cfg.LLMMaxAttempts,
		temperature:   cfg.LLMTemperature,
		noTemperature: noTemp,
		httpClient: &http.Client{
			Timeout: cfg.LLMTimeout,
		},
		logger: logger,
	}
}

// chatCompletionRequest is the wire request. Temperature is a pointer so it
// can be omitted entirely for models that reject it.
type chatCompletionRequest struct {
	Model       string         `json:"model"`
	Messages    []chat.Message `json:"messages"`
	Temperature *float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatJSON tries providers strictly in order and returns the first
// successful JSON object. A provider that exhausts its attempts is expected
// and non-fatal; only all-providers failure returns an error.
func (c *Client) ChatJSON(ctx context.Context, providers []Provider, messages []chat.Message) (map[string]any, error) {
	requestID := uuid.New().String()[:8]

	labels := make([]string, 0, len(providers))
	for _, p := range providers {
		labels = append(labels, fmt.Sprintf("%s(model=%s, key=%s)", p.Label, p.Model, keyState(p.APIKey)))
	}
	c.logger.Info("LLM provider order",
		"request_id", requestID,
		"providers", strings.Join(labels, ", "))

	var lastErr error
	for _, provider := range providers {
		out, err := c.chatCompletions(ctx, provider, messages, requestID)
		if err != nil {
			lastErr = err
			c.logger.Error("Provider failed",
				"request_id", requestID,
				"provider", provider.Label,
				"error", err)
			continue
		}
		if out == nil {
			lastErr = fmt.Errorf("provider %s returned no JSON", provider.Label)
			c.logger.Error("Provider exhausted attempts",
				"request_id", requestID,
				"provider", provider.Label)
			continue
		}
		return out, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured")
	}
	return nil, fmt.Errorf("all LLM providers failed: %w", lastErr)
}

// chatCompletions runs a single provider's call-with-retries. Returns
// (nil, nil) when every attempt was used up; errors are reserved for
// conditions that make further attempts pointless (context cancellation).
func (c *Client) chatCompletions(ctx context.Context, provider Provider, messages []chat.Message, requestID string) (map[string]any, error) {
	url := strings.TrimRight(provider.BaseURL, "/") + "/chat/completions"

	reqBody := chatCompletionRequest{
		Model:    provider.Model,
		Messages: messages,
	}
	// Temperature quirks: omit when the model rejects a non-default value.
	if !c.noTemperature[provider.Model] {
		temp := c.temperature
		reqBody.Temperature = &temp
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr string
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context done before attempt %d: %w", attempt, err)
		}

		content, errMsg := c.postOnce(ctx, url, provider, jsonBody, requestID, attempt)
		if errMsg == "" {
			parsed := c.extractJSONFromText(content, provider.Label, requestID)
			if parsed != nil {
				return parsed, nil
			}
			lastErr = "JSON parse failed"
		} else {
			lastErr = errMsg
		}

		// small backoff + jitter
		time.Sleep(250*time.Millisecond +
			time.Duration(rand.Float64()*float64(500*time.Millisecond)) +
			time.Duration(attempt)*200*time.Millisecond)
	}

	c.logger.Error("Exhausted attempts",
		"request_id", requestID,
		"provider", provider.Label,
		"last_error", lastErr)
	return nil, nil
}

// postOnce performs one HTTP attempt and returns the first choice's content,
// or a non-empty error description to retry on.
func (c *Client) postOnce(ctx context.Context, url string, provider Provider, jsonBody []byte, requestID string, attempt int) (string, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Sprintf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if provider.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+provider.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("LLM request failed",
			"request_id", requestID,
			"provider", provider.Label,
			"attempt", attempt,
			"error", err)
		return "", fmt.Sprintf("request failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Sprintf("failed to read response body: %v", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Error("LLM API returned error",
			"request_id", requestID,
			"provider", provider.Label,
			"attempt", attempt,
			"status_code", resp.StatusCode,
			"body", excerpt(string(body), 1200))
		return "", fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Sprintf("failed to decode response: %v", err)
	}
	if len(completion.Choices) == 0 {
		return "", "response contained no choices"
	}
	return completion.Choices[0].Message.Content, ""
}

// extractJSONFromText tries a strict parse of the whole text, then the first
// '{' through the last '}' span, tolerating models that wrap JSON in prose
// or markdown fences. Returns nil when no JSON object can be recovered.
func (c *Client) extractJSONFromText(text, label, requestID string) map[string]any {
	t := strings.TrimSpace(text)

	var strict map[string]any
	if err := json.Unmarshal([]byte(t), &strict); err == nil && strict != nil {
		return strict
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		c.logger.Error("No JSON object found in LLM content",
			"request_id", requestID,
			"provider", label,
			"raw", excerpt(t, rawExcerptLimit))
		return nil
	}

	candidate := t[start : end+1]
	var extracted map[string]any
	if err := json.Unmarshal([]byte(candidate), &extracted); err != nil || extracted == nil {
		c.logger.Error("JSON extraction parse failed",
			"request_id", requestID,
			"provider", label,
			"candidate", excerpt(candidate, rawExcerptLimit),
			"raw", excerpt(t, rawExcerptLimit))
		return nil
	}
	return extracted
}

func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func keyState(key string) string {
	if key == "" {
		return "unset"
	}
	return "set"
}
