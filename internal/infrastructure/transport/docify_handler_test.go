package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"docify/app/usecase"
	"docify/internal/domain/entity"
	"docify/internal/infrastructure/store/memory"
)

type stubGenerator struct {
	output string
	err    error
}

func (s *stubGenerator) Generate(context.Context, string) (string, error) {
	return s.output, s.err
}

func (s *stubGenerator) Ready() bool { return s.err == nil }

type stubWriter struct {
	err error
}

func (s *stubWriter) WriteEntry(context.Context, string, *entity.StructuredDocument, *entity.GenerationMetrics, time.Time) error {
	return s.err
}

func (s *stubWriter) DocURL(docID string) string {
	return "https://docs.google.com/document/d/" + docID
}

func (s *stubWriter) Ready() bool { return true }

const stubModelOutput = `{
	"title": "Backend API Development Log",
	"summary": "Implemented the service.",
	"achievements": ["shipped"],
	"priority": "medium"
}`

func newTestServer(t *testing.T, gen *stubGenerator, wr *stubWriter) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := usecase.NewDocumentationService(gen, wr, memory.NewResultRepo(), "doc-1", logger)
	h := NewDocifyHandler(svc, logger)

	r := mux.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func decodeEnvelope(t *testing.T, res *http.Response) generateResponse {
	t.Helper()
	defer res.Body.Close()
	var env generateResponse
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func postGenerate(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	res, err := http.Post(srv.URL+"/generate", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post /generate: %v", err)
	}
	return res
}

func TestHandleGenerateSuccess(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{output: stubModelOutput}, &stubWriter{})

	res := postGenerate(t, srv, `{"topic": "Backend API Development", "priority": "medium"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	env := decodeEnvelope(t, res)

	if !env.Success {
		t.Fatalf("expected success envelope, got error %q", env.Error)
	}
	if env.DocURL == "" || env.ResultID == "" {
		t.Errorf("success envelope must carry doc_url and result_id: %+v", env)
	}
	if env.ContentPreview == nil || env.ContentPreview.Title == "" {
		t.Error("success envelope must carry a content preview")
	}
	if env.Timestamp == "" {
		t.Error("envelope must carry a timestamp")
	}
	if env.Error != "" {
		t.Error("success envelope must not carry an error")
	}
}

func TestHandleGenerateBadBody(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{output: stubModelOutput}, &stubWriter{})

	res := postGenerate(t, srv, `{"topic": `)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
	env := decodeEnvelope(t, res)
	if env.Success || env.Error == "" || env.Timestamp == "" {
		t.Errorf("failure envelope must carry success=false, error, timestamp: %+v", env)
	}
	if strings.Contains(env.Error, "json") && strings.Contains(env.Error, "0x") {
		t.Error("failure envelope must not leak raw decoder internals")
	}
}

func TestHandleGenerateEmptyTopic(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{output: stubModelOutput}, &stubWriter{})

	res := postGenerate(t, srv, `{"topic": "   "}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
	env := decodeEnvelope(t, res)
	if env.Success {
		t.Fatal("blank topic must produce a failure envelope")
	}
	if env.ErrorKind != entity.KindInvalidRequest {
		t.Errorf("error_kind = %q, want %q", env.ErrorKind, entity.KindInvalidRequest)
	}
}

func TestHandleGenerateModelDown(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{err: entity.ErrModelUnavailable}, &stubWriter{})

	res := postGenerate(t, srv, `{"topic": "Topic"}`)
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", res.StatusCode)
	}
	env := decodeEnvelope(t, res)
	if env.Success || env.ErrorKind != entity.KindModelUnavailable {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{output: stubModelOutput}, &stubWriter{})

	res, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get /health: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}

func TestHandleHealthDegraded(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{err: entity.ErrModelAuth}, &stubWriter{})

	res, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get /health: %v", err)
	}
	defer res.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["status"] != "degraded" || body["generator_ready"] != false {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestHandleGetResultNotFound(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{output: stubModelOutput}, &stubWriter{})

	res, err := http.Get(srv.URL + "/results/no-such-id")
	if err != nil {
		t.Fatalf("get /results/{id}: %v", err)
	}
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", res.StatusCode)
	}
	env := decodeEnvelope(t, res)
	if env.Success {
		t.Error("not-found must be a failure envelope")
	}
}

func TestHandleRetryFlow(t *testing.T) {
	wr := &stubWriter{err: entity.ErrDocumentWriteConflict}
	srv := newTestServer(t, &stubGenerator{output: stubModelOutput}, wr)

	res := postGenerate(t, srv, `{"topic": "Topic"}`)
	env := decodeEnvelope(t, res)
	if env.Success || env.ResultID == "" {
		t.Fatalf("expected salvaged failure with result id, got %+v", env)
	}

	wr.err = nil
	retryRes, err := http.Post(srv.URL+"/results/"+env.ResultID+"/retry", "application/json", nil)
	if err != nil {
		t.Fatalf("post retry: %v", err)
	}
	if retryRes.StatusCode != http.StatusOK {
		t.Fatalf("retry status = %d, want 200", retryRes.StatusCode)
	}
	retried := decodeEnvelope(t, retryRes)
	if !retried.Success || retried.DocURL == "" {
		t.Errorf("retried envelope should be a success with doc_url: %+v", retried)
	}
}

func TestHandleInfo(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{output: stubModelOutput}, &stubWriter{})

	res, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get /: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if body["usage"] == nil {
		t.Error("info body must describe usage")
	}
}

func TestGenerateWebSocketProgress(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{output: stubModelOutput}, &stubWriter{})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/generate/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(entity.GenerationRequest{Topic: "Topic"}); err != nil {
		t.Fatalf("write request frame: %v", err)
	}

	type frame struct {
		Type   string            `json:"type"`
		From   string            `json:"from"`
		To     string            `json:"to"`
		Result *generateResponse `json:"result"`
	}

	var stages []string
	for {
		var ev frame
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if ev.Type == "result" {
			if ev.Result == nil || !ev.Result.Success {
				t.Fatalf("expected success result frame, got %+v", ev)
			}
			break
		}
		stages = append(stages, ev.To)
	}

	want := []string{"generating", "writing", "done"}
	if len(stages) != len(want) {
		t.Fatalf("stage frames = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage frames = %v, want %v", stages, want)
		}
	}
}
