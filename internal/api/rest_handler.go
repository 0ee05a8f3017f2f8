package api

import (
	"context"
	"encoding/json"
	"fraud_simulator/internal/domain"
	"fraud_simulator/internal/processor"
	"log/slog"
	"net/http"
)

// MaxRequestSize caps the transaction body; larger bodies fail to decode.
const MaxRequestSize = 1 << 20

const msgUnavailable = "service unavailable"

const (
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)

type operation func(ctx context.Context, in processor.Inbound) processor.Outcome

// APIHandler adapts HTTP requests to pipeline operations. At most `workers`
// requests are inside the pipeline at once.
type APIHandler struct {
	pipeline   *processor.Pipeline
	workerPool chan struct{}
	logger     *slog.Logger
}

func NewAPIHandler(pipeline *processor.Pipeline, workers int, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}

	return &APIHandler{
		pipeline:   pipeline,
		workerPool: make(chan struct{}, workers),
		logger:     logger,
	}
}

func (h *APIHandler) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestSize)
	h.serve(w, r, h.pipeline.ProcessTransaction)
}

func (h *APIHandler) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.pipeline.ListAlerts)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.pipeline.Health)
}

func (h *APIHandler) serve(w http.ResponseWriter, r *http.Request, op operation) {
	select {
	case h.workerPool <- struct{}{}:
		defer func() { <-h.workerPool }()
	case <-r.Context().Done():
		h.logger.Warn("Request abandoned while waiting for a worker",
			slog.String("path", r.URL.Path),
			slog.String("error", r.Context().Err().Error()))
		h.sendJSON(w, domain.ErrorResponse{Error: msgUnavailable, Code: domain.CodeUnavailable}, http.StatusServiceUnavailable)
		return
	}

	out := op(r.Context(), inbound(r))
	h.sendJSON(w, out.Payload, out.Status)
}

func inbound(r *http.Request) processor.Inbound {
	return processor.Inbound{
		Method:       r.Method,
		ForwardedFor: r.Header.Get(HeaderForwardedFor),
		RealIP:       r.Header.Get(HeaderRealIP),
		RemoteAddr:   r.RemoteAddr,
		Body:         r.Body,
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// RegisterRoutes mounts the API. Paths match by prefix and each operation
// checks its own method so that wrong methods still get a logged 405.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/health", h.HealthCheckHandler)
	mux.HandleFunc("/api/v1/health/", h.HealthCheckHandler)
	mux.HandleFunc("/api/v1/transactions", h.TransactionsHandler)
	mux.HandleFunc("/api/v1/transactions/", h.TransactionsHandler)
	mux.HandleFunc("/api/v1/alerts", h.AlertsHandler)
	mux.HandleFunc("/api/v1/alerts/", h.AlertsHandler)
}
