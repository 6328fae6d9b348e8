package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"docify/internal/domain/entity"
)

func candidateResponse(text string) string {
	return `{"candidates": [{"content": {"role": "model", "parts": [{"text": ` + jsonString(text) + `}]}}]}`
}

func jsonString(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

func newTestGenerator(baseURL string, timeout time.Duration) *GeminiGenerator {
	g := NewGeminiGenerator("test-key", baseURL, "gemini-2.5-flash", 2048, 0.3, timeout).(*GeminiGenerator)
	g.maxRetries = 1
	return g
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(candidateResponse(`{"title": "T"}`)))
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, 5*time.Second)
	text, err := g.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"title": "T"}` {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestGenerateRetriesOnOverload(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"code": 429, "message": "quota"}}`))
			return
		}
		w.Write([]byte(candidateResponse("ok")))
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, 5*time.Second)
	text, err := g.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if text != "ok" {
		t.Fatalf("unexpected text: %q", text)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls.Load())
	}
}

func TestGenerateBoundedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, 5*time.Second)
	_, err := g.Generate(context.Background(), "prompt")
	if !errors.Is(err, entity.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected initial call + 1 retry, got %d calls", calls.Load())
	}
}

func TestGenerateAuthErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, 5*time.Second)
	_, err := g.Generate(context.Background(), "prompt")
	if !errors.Is(err, entity.ErrModelAuth) {
		t.Fatalf("expected ErrModelAuth, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("auth errors must not retry, got %d calls", calls.Load())
	}
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can observe the client disconnect and
		// cancel the request context; otherwise srv.Close blocks forever.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, 50*time.Millisecond)
	g.maxRetries = 0
	_, err := g.Generate(context.Background(), "prompt")
	if !errors.Is(err, entity.ErrModelUnavailable) {
		t.Fatalf("timeout must surface as ErrModelUnavailable, got %v", err)
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL, 5*time.Second)
	_, err := g.Generate(context.Background(), "prompt")
	if !errors.Is(err, entity.ErrMalformedModelOutput) {
		t.Fatalf("expected ErrMalformedModelOutput, got %v", err)
	}
}
