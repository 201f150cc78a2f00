package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/observability/metrics"
	"github.com/yourorg/adminbase/internal/security/audit"
	"github.com/yourorg/adminbase/internal/security/auth"
	"github.com/yourorg/adminbase/internal/security/middleware"
	"github.com/yourorg/adminbase/internal/service"
	"github.com/yourorg/adminbase/internal/session"
)

// AuthHandler handles registration, login, logout, and activation.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	sessions    *session.Store
	audit       *audit.Recorder
	tokenTTL    time.Duration
	logger      *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	userService *service.UserService,
	sessions *session.Store,
	auditRec *audit.Recorder,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		userService: userService,
		sessions:    sessions,
		audit:       auditRec,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// RegisterRequest represents a self-service registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest accepts an email address or username as the identifier.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse contains the issued token and the resolved identity.
type LoginResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      domain.Identity `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode register request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	user, err := h.userService.Create(service.CreateUserInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse(user))
}

// Login handles POST /api/auth/login. A successful login creates a
// server-side session and returns a bearer token; clients may use either.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode login request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	if req.Identifier == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "identifier and password required"})
		return
	}

	user, token, err := h.authService.Login(req.Identifier, req.Password)
	if err != nil {
		metrics.ObserveLogin("failure")
		// Single generic message for unknown account and bad password alike.
		writeError(w, err)
		return
	}
	metrics.ObserveLogin("success")

	identity := domain.IdentityFromUser(user)
	if err := h.sessions.Create(w, r, identity); err != nil {
		h.logger.Error("failed to create session",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "session store unavailable"})
		return
	}

	h.audit.Record(user.ID, "login", middleware.ClientIP(r), r.UserAgent())

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: time.Now().Add(h.tokenTTL),
		User:      identity,
	})
}

// Logout handles POST /api/auth/logout, clearing the session wholesale.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if identity := middleware.IdentityFromContext(r.Context()); identity != nil {
		h.audit.Record(identity.ID, "logout", middleware.ClientIP(r), r.UserAgent())
	}

	h.sessions.Clear(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Activate handles GET /api/auth/activate/{token}, consuming the activation
// token exactly once.
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "activation token required"})
		return
	}

	user, err := h.userService.Activate(token)
	if err != nil {
		metrics.ObserveActivation("failure")
		writeError(w, err)
		return
	}
	metrics.ObserveActivation("success")

	h.audit.Record(user.ID, "activate", middleware.ClientIP(r), r.UserAgent())
	writeJSON(w, http.StatusOK, userResponse(user))
}

// Me handles GET /api/auth/me, returning the resolved identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireAuthenticated(middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}
