// Package llm holds the outbound provider clients: an OpenAI-compatible chat
// gateway for structured profile extraction and an embeddings gateway. Both
// share one rate limiter so the requests-per-minute ceiling holds across the
// whole run, not per client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"fan-insights-go/internal/config"
	"fan-insights-go/internal/logger"
)

// ChatClient issues one structured-extraction request. Retry policy lives in
// the caller; a single call here is a single outbound attempt.
type ChatClient interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// EmbedClient returns one fixed-length vector per input text, paired by index.
type EmbedClient interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger

	gatewayURL string
	apiKey     string
	model      string

	embedURL   string
	embedModel string

	maxRetries int
}

func NewClient(cfg config.Config, log *logger.Logger) (*Client, error) {
	if cfg.LLMGatewayURL == "" || cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("llm gateway not configured")
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		log:        log,
		gatewayURL: strings.TrimRight(cfg.LLMGatewayURL, "/"),
		apiKey:     cfg.LLMAPIKey,
		model:      cfg.LLMModel,
		embedURL:   strings.TrimRight(cfg.EmbedGatewayURL, "/"),
		embedModel: cfg.EmbedModel,
		maxRetries: cfg.MaxRetries,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat posts one chat-completions request and returns the raw assistant
// content. Temperature is pinned to 0: extraction must be as deterministic as
// the provider allows.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.0,
	}

	raw, err := c.post(ctx, c.gatewayURL+"/v1/chat/completions", body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns vectors paired to inputs by the explicit index field, never
// by array position. Transient failures are retried here with exponential
// backoff since there is no per-item fallback to escalate to.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	clean := make([]string, len(texts))
	for i := range texts {
		s := strings.TrimSpace(texts[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	body := embedRequest{Model: c.embedModel, Input: clean}

	var out [][]float64
	op := func() error {
		raw, err := c.post(ctx, c.embedURL+"/v1/embeddings", body)
		if err != nil {
			if !IsUnavailable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		var parsed embedResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return fmt.Errorf("decode embeddings response: %w", err)
		}
		vecs := make([][]float64, len(clean))
		for _, d := range parsed.Data {
			if d.Index >= 0 && d.Index < len(vecs) {
				vecs[d.Index] = d.Embedding
			}
		}
		for i, v := range vecs {
			if v == nil {
				return fmt.Errorf("embeddings response missing index %d", i)
			}
		}
		out = vecs
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.WithComponent("llm-client").
		WithField("url", url).
		WithField("http_status", resp.StatusCode).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("provider call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
