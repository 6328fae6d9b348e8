package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"docify/internal/domain/entity"
	"docify/internal/domain/repository"
	"docify/internal/infrastructure/metrics"
)

const defaultMaxRetries = 2

// GeminiGenerator calls a Gemini-style generateContent REST endpoint. This is
// the sole long-latency call in the pipeline; every request carries the
// configured timeout and inherits cancellation from the inbound request.
type GeminiGenerator struct {
	apiKey      string
	baseURL     string
	model       string
	client      *http.Client
	maxTokens   int
	temperature float64
	maxRetries  int
}

func NewGeminiGenerator(apiKey, baseURL, model string, maxTokens int, temperature float64, timeout time.Duration) repository.ContentGenerator {
	return &GeminiGenerator{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		client:      &http.Client{Timeout: timeout},
		maxTokens:   maxTokens,
		temperature: temperature,
		maxRetries:  defaultMaxRetries,
	}
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	metrics.IncLLMRequest(g.model)
	start := time.Now()
	defer func() {
		metrics.ObserveLLMDuration(g.model, time.Since(start))
	}()

	body := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     g.temperature,
			MaxOutputTokens: g.maxTokens,
		},
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.IncLLMRetry()
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", entity.ErrModelUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		text, retryable, err := g.makeRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", lastErr
}

func (g *GeminiGenerator) Ready() bool {
	return g.apiKey != "" && g.model != ""
}

// makeRequest performs one HTTP round trip. The retryable flag is true only
// for transient overload responses (429, 5xx) and transport errors; auth and
// client errors fail fast.
func (g *GeminiGenerator) makeRequest(ctx context.Context, body generateContentRequest) (string, bool, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		metrics.IncError("llm", "marshal_request")
		return "", false, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		metrics.IncError("llm", "create_request")
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.IncError("llm", "http_do")
		if errors.Is(err, context.Canceled) {
			return "", false, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
		}
		return "", true, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncError("llm", "read_response")
		return "", true, fmt.Errorf("%w: read response: %v", entity.ErrModelUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.IncError("llm", fmt.Sprintf("api_error_%d", resp.StatusCode))
		return "", false, fmt.Errorf("%w: %d - %s", entity.ErrModelAuth, resp.StatusCode, string(respBody))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		metrics.IncError("llm", fmt.Sprintf("api_error_%d", resp.StatusCode))
		return "", true, fmt.Errorf("%w: %d - %s", entity.ErrModelUnavailable, resp.StatusCode, string(respBody))
	default:
		metrics.IncError("llm", fmt.Sprintf("api_error_%d", resp.StatusCode))
		return "", false, fmt.Errorf("%w: %d - %s", entity.ErrModelUnavailable, resp.StatusCode, string(respBody))
	}

	var response generateContentResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		metrics.IncError("llm", "decode_response")
		return "", false, fmt.Errorf("%w: decode response: %v", entity.ErrMalformedModelOutput, err)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		metrics.IncError("llm", "empty_candidates")
		return "", false, fmt.Errorf("%w: no candidates in response", entity.ErrMalformedModelOutput)
	}

	var text string
	for _, p := range response.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, false, nil
}
