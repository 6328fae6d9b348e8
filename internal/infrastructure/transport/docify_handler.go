package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docify/app/usecase"
	"docify/internal/domain/entity"
)

var (
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	reqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path"},
	)
	errCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP request errors.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(reqDuration, reqCount, errCount)
}

type DocifyHandler struct {
	docs     usecase.DocumentationUsecase
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewDocifyHandler(docs usecase.DocumentationUsecase, logger *slog.Logger) *DocifyHandler {
	return &DocifyHandler{
		docs:   docs,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *DocifyHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		method := r.Method

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		duration := time.Since(start).Seconds()
		statusStr := strconv.Itoa(rw.status)

		reqCount.WithLabelValues(method, path).Inc()
		reqDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if rw.status >= 400 {
			errCount.WithLabelValues(method, path, statusStr).Inc()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *DocifyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.withMetrics(h.handleInfo)).Methods(http.MethodGet)
	r.HandleFunc("/generate", h.withMetrics(h.handleGenerate)).Methods(http.MethodPost)
	r.HandleFunc("/generate/ws", h.handleGenerateWS).Methods(http.MethodGet)
	r.HandleFunc("/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)
	r.HandleFunc("/results", h.withMetrics(h.handleListResults)).Methods(http.MethodGet)
	r.HandleFunc("/results/{id}", h.withMetrics(h.handleGetResult)).Methods(http.MethodGet)
	r.HandleFunc("/results/{id}/retry", h.withMetrics(h.handleRetryWrite)).Methods(http.MethodPost)

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())
}

// generateResponse is the caller-visible envelope. Failures always carry
// success=false, error, and timestamp; never a raw internal error dump.
type generateResponse struct {
	Success        bool                      `json:"success"`
	Message        string                    `json:"message,omitempty"`
	Timestamp      string                    `json:"timestamp"`
	DocURL         string                    `json:"doc_url,omitempty"`
	ResultID       string                    `json:"result_id,omitempty"`
	ContentPreview *contentPreview           `json:"content_preview,omitempty"`
	Metrics        *entity.GenerationMetrics `json:"metrics,omitempty"`
	Error          string                    `json:"error,omitempty"`
	ErrorKind      string                    `json:"error_kind,omitempty"`
}

type contentPreview struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	KeyAchievements []string `json:"key_achievements"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, generateResponse{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: entity.KindOf(err),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func resultEnvelope(result *entity.GenerationResult) generateResponse {
	resp := generateResponse{
		Success:   result.Success,
		Timestamp: result.Timestamp.Format(time.RFC3339),
		ResultID:  result.ID,
		Metrics:   result.Metrics,
	}
	if result.Success {
		resp.Message = "Documentation generated and written successfully"
		resp.DocURL = result.DocURL
	} else {
		resp.Error = result.Error
		resp.ErrorKind = result.ErrorKind
	}
	if result.Document != nil {
		resp.ContentPreview = &contentPreview{
			Title:           result.Document.Title,
			Summary:         result.Document.Summary,
			KeyAchievements: result.Document.Achievements,
		}
	}
	return resp
}

func statusForResult(result *entity.GenerationResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.ErrorKind {
	case entity.KindInvalidRequest:
		return http.StatusBadRequest
	case entity.KindModelUnavailable, entity.KindModelAuth,
		entity.KindDocumentPermissionDenied, entity.KindDocumentWriteConflict:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// POST /generate
func (h *DocifyHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req entity.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, errors.New("bad request body"))
		return
	}

	result := h.docs.Generate(r.Context(), req)
	writeJSON(w, statusForResult(result), resultEnvelope(result))
}

// GET /results
func (h *DocifyHandler) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	results, err := h.docs.ListResults(r.Context(), limit)
	if err != nil {
		h.logger.Error("list results failed", "err", err)
		writeFailure(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// GET /results/{id}
func (h *DocifyHandler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, err := h.docs.GetResult(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrResultNotFound) {
			writeFailure(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("get result failed", "result_id", id, "err", err)
		writeFailure(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /results/{id}/retry
func (h *DocifyHandler) handleRetryWrite(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, err := h.docs.RetryWrite(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrResultNotFound) {
			writeFailure(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("retry write failed", "result_id", id, "err", err)
		writeFailure(w, statusForKind(entity.KindOf(err)), err)
		return
	}
	writeJSON(w, http.StatusOK, resultEnvelope(result))
}

func statusForKind(kind string) int {
	switch kind {
	case entity.KindDocumentPermissionDenied, entity.KindDocumentWriteConflict:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GET /health
func (h *DocifyHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	generatorReady, writerReady := h.docs.Ready()
	status := "healthy"
	if !generatorReady || !writerReady {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          status,
		"generator_ready": generatorReady,
		"writer_ready":    writerReady,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

// GET /
func (h *DocifyHandler) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "Docify Generator",
		"version":     "1.0.0",
		"description": "Generate structured work documentation with one endpoint",
		"usage": map[string]interface{}{
			"endpoint": "POST /generate",
			"example": map[string]interface{}{
				"topic":          "Your work topic",
				"related_topics": []string{"subtopic1", "subtopic2"},
			},
		},
	})
}
