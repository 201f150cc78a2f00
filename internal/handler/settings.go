package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/security/audit"
	"github.com/yourorg/adminbase/internal/security/middleware"
)

// SettingsHandler exposes the admin key/value settings endpoints.
type SettingsHandler struct {
	settings domain.SettingRepository
	audit    *audit.Recorder
	logger   *slog.Logger
}

func NewSettingsHandler(settings domain.SettingRepository, auditRec *audit.Recorder, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &SettingsHandler{
		settings: settings,
		audit:    auditRec,
		logger:   logger,
	}
}

// List handles GET /api/settings with sort/order query parameters.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	q := r.URL.Query()
	settings, err := h.settings.List(domain.SettingListOptions{
		SortField: q.Get("sort"),
		SortDesc:  strings.EqualFold(q.Get("order"), "desc"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if settings == nil {
		settings = []*domain.Setting{}
	}
	writeJSON(w, http.StatusOK, settings)
}

// Get handles GET /api/settings/{name}
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	setting, err := h.settings.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, setting)
}

// SettingRequest is the create/update payload.
type SettingRequest struct {
	SettingName string `json:"setting_name"`
	Value       string `json:"value"`
}

// Create handles POST /api/settings
func (h *SettingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin := requireAdmin(w, r)
	if admin == nil {
		return
	}

	var req SettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if strings.TrimSpace(req.SettingName) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "setting_name required"})
		return
	}

	setting := &domain.Setting{SettingName: strings.TrimSpace(req.SettingName), Value: req.Value}
	if err := h.settings.Create(setting); err != nil {
		writeError(w, err)
		return
	}

	h.audit.Record(admin.ID, "setting_create", middleware.ClientIP(r), r.UserAgent())
	writeJSON(w, http.StatusCreated, setting)
}

// Update handles PUT /api/settings/{name}, overwriting the value in place.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	admin := requireAdmin(w, r)
	if admin == nil {
		return
	}

	var req SettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	setting, err := h.settings.Update(r.PathValue("name"), req.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit.Record(admin.ID, "setting_update", middleware.ClientIP(r), r.UserAgent())
	writeJSON(w, http.StatusOK, setting)
}

// Delete handles DELETE /api/settings/{name}. A missing name is 404, not an
// error.
func (h *SettingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := requireAdmin(w, r)
	if admin == nil {
		return
	}

	deleted, err := h.settings.Delete(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}

	h.audit.Record(admin.ID, "setting_delete", middleware.ClientIP(r), r.UserAgent())
	writeJSON(w, http.StatusOK, map[string]string{"message": "setting deleted"})
}
