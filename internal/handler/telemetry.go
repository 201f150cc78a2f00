package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/security/auth"
	"github.com/yourorg/adminbase/internal/security/middleware"
	"github.com/yourorg/adminbase/internal/service"
)

// TelemetryHandler exposes the analytics store (store B) and the operations
// store (store C) over JSON. All endpoints require an authenticated caller.
type TelemetryHandler struct {
	telemetry *service.TelemetryService
	logger    *slog.Logger
}

func NewTelemetryHandler(telemetry *service.TelemetryService, logger *slog.Logger) *TelemetryHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &TelemetryHandler{
		telemetry: telemetry,
		logger:    logger,
	}
}

func requireAuthenticated(w http.ResponseWriter, r *http.Request) *domain.Identity {
	identity, err := auth.RequireAuthenticated(middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return nil
	}
	return identity
}

// AnalyticsEventRequest is the analytics write payload. An empty user_id
// defaults to the caller.
type AnalyticsEventRequest struct {
	UserID    string          `json:"user_id"`
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data"`
}

// CreateAnalyticsEvent handles POST /api/telemetry/analytics
func (h *TelemetryHandler) CreateAnalyticsEvent(w http.ResponseWriter, r *http.Request) {
	identity := requireAuthenticated(w, r)
	if identity == nil {
		return
	}

	var req AnalyticsEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if req.UserID == "" {
		req.UserID = identity.ID
	}

	event, err := h.telemetry.RecordAnalyticsEvent(req.UserID, req.EventType, req.EventData)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListAnalyticsEvents handles GET /api/telemetry/analytics
func (h *TelemetryHandler) ListAnalyticsEvents(w http.ResponseWriter, r *http.Request) {
	if requireAuthenticated(w, r) == nil {
		return
	}

	q := r.URL.Query()
	events, err := h.telemetry.ListAnalyticsEvents(domain.AnalyticsFilter{
		UserID:    q.Get("user_id"),
		EventType: q.Get("event_type"),
		Limit:     parseIntParam(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if events == nil {
		events = []*domain.AnalyticsEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// UserLogRequest is the user activity write payload.
type UserLogRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

// CreateUserLog handles POST /api/telemetry/logs. IP and user agent are
// taken from the request itself.
func (h *TelemetryHandler) CreateUserLog(w http.ResponseWriter, r *http.Request) {
	identity := requireAuthenticated(w, r)
	if identity == nil {
		return
	}

	var req UserLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if req.UserID == "" {
		req.UserID = identity.ID
	}

	log, err := h.telemetry.RecordUserLog(req.UserID, req.Action, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, log)
}

// ListUserLogs handles GET /api/telemetry/logs
func (h *TelemetryHandler) ListUserLogs(w http.ResponseWriter, r *http.Request) {
	if requireAuthenticated(w, r) == nil {
		return
	}

	q := r.URL.Query()
	logs, err := h.telemetry.ListUserLogs(domain.UserLogFilter{
		UserID: q.Get("user_id"),
		Action: q.Get("action"),
		Limit:  parseIntParam(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if logs == nil {
		logs = []*domain.UserLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// SystemEventRequest is the system event write payload.
type SystemEventRequest struct {
	EventType     string          `json:"event_type"`
	Severity      string          `json:"severity"`
	Message       string          `json:"message"`
	EventMetadata json.RawMessage `json:"event_metadata"`
}

// CreateSystemEvent handles POST /api/telemetry/events
func (h *TelemetryHandler) CreateSystemEvent(w http.ResponseWriter, r *http.Request) {
	if requireAuthenticated(w, r) == nil {
		return
	}

	var req SystemEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	event, err := h.telemetry.RecordSystemEvent(req.EventType, req.Severity, req.Message, req.EventMetadata)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListSystemEvents handles GET /api/telemetry/events
func (h *TelemetryHandler) ListSystemEvents(w http.ResponseWriter, r *http.Request) {
	if requireAuthenticated(w, r) == nil {
		return
	}

	q := r.URL.Query()
	events, err := h.telemetry.ListSystemEvents(domain.SystemEventFilter{
		EventType: q.Get("event_type"),
		Severity:  q.Get("severity"),
		Limit:     parseIntParam(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if events == nil {
		events = []*domain.SystemEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// MetricRequest is the performance metric write payload.
type MetricRequest struct {
	MetricName  string          `json:"metric_name"`
	MetricValue float64         `json:"metric_value"`
	Unit        string          `json:"unit"`
	Tags        json.RawMessage `json:"tags"`
}

// CreateMetric handles POST /api/telemetry/metrics
func (h *TelemetryHandler) CreateMetric(w http.ResponseWriter, r *http.Request) {
	if requireAuthenticated(w, r) == nil {
		return
	}

	var req MetricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	metric, err := h.telemetry.RecordMetric(req.MetricName, req.MetricValue, req.Unit, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, metric)
}

// ListMetrics handles GET /api/telemetry/metrics
func (h *TelemetryHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	if requireAuthenticated(w, r) == nil {
		return
	}

	q := r.URL.Query()
	metrics, err := h.telemetry.ListMetrics(domain.MetricFilter{
		MetricName: q.Get("metric_name"),
		Limit:      parseIntParam(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if metrics == nil {
		metrics = []*domain.PerformanceMetric{}
	}
	writeJSON(w, http.StatusOK, metrics)
}
