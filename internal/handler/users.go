package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/security/audit"
	"github.com/yourorg/adminbase/internal/security/auth"
	"github.com/yourorg/adminbase/internal/security/middleware"
	"github.com/yourorg/adminbase/internal/service"
)

// UsersHandler exposes the admin user CRUD endpoints.
type UsersHandler struct {
	userService *service.UserService
	audit       *audit.Recorder
	logger      *slog.Logger
}

func NewUsersHandler(userService *service.UserService, auditRec *audit.Recorder, logger *slog.Logger) *UsersHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &UsersHandler{
		userService: userService,
		audit:       auditRec,
		logger:      logger,
	}
}

func requireAdmin(w http.ResponseWriter, r *http.Request) *domain.Identity {
	identity, err := auth.RequireAdmin(middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return nil
	}
	return identity
}

// List handles GET /api/users with skip/limit/sort/order query parameters.
// An unknown sort field falls back to default store order.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	q := r.URL.Query()
	opts := domain.UserListOptions{
		Skip:      parseIntParam(q.Get("skip"), 0),
		Limit:     parseIntParam(q.Get("limit"), 100),
		SortField: q.Get("sort"),
		SortDesc:  strings.EqualFold(q.Get("order"), "desc"),
	}

	users, err := h.userService.List(opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponses(users))
}

// Get handles GET /api/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	user, err := h.userService.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user))
}

// CreateUserRequest is the admin user-creation payload. Unlike self-service
// registration it may grant superuser.
type CreateUserRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Create handles POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin := requireAdmin(w, r)
	if admin == nil {
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	user, err := h.userService.Create(service.CreateUserInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		FullName:    req.FullName,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit.Record(admin.ID, "user_create", middleware.ClientIP(r), r.UserAgent())
	writeJSON(w, http.StatusCreated, userResponse(user))
}

// UpdateUserRequest carries a partial update; absent fields stay untouched.
type UpdateUserRequest struct {
	Email       *string `json:"email"`
	Username    *string `json:"username"`
	Password    *string `json:"password"`
	FullName    *string `json:"full_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// Update handles PUT /api/users/{id}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	admin := requireAdmin(w, r)
	if admin == nil {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	user, err := h.userService.Update(r.PathValue("id"), domain.UserUpdate{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		FullName:    req.FullName,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit.Record(admin.ID, "user_update", middleware.ClientIP(r), r.UserAgent())
	writeJSON(w, http.StatusOK, userResponse(user))
}

// Delete handles DELETE /api/users/{id}. Hard delete; a missing ID is 404.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin := requireAdmin(w, r)
	if admin == nil {
		return
	}

	deleted, err := h.userService.Delete(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}

	h.audit.Record(admin.ID, "user_delete", middleware.ClientIP(r), r.UserAgent())
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func parseIntParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
