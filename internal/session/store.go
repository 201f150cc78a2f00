// Package session implements the server-side session carrier: a session ID
// cookie pointing at a redis-held identity snapshot. The snapshot is
// returned verbatim on later requests; the redis TTL bounds its staleness.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/adminbase/internal/domain"
)

const cookieName = "adminbase_session"

// Backend is the key-value store holding session payloads.
type Backend interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Store manages identity snapshots keyed by session ID.
type Store struct {
	backend Backend
	ttl     time.Duration
	secure  bool
	logger  *slog.Logger
}

func NewStore(backend Backend, ttl time.Duration, secure bool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{backend: backend, ttl: ttl, secure: secure, logger: logger}
}

// Snapshot returns the identity snapshot attached to the request's session,
// if the cookie is present and the session has not expired.
func (s *Store) Snapshot(r *http.Request) (domain.Identity, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return domain.Identity{}, false
	}

	payload, err := s.backend.Get(r.Context(), sessionKey(cookie.Value))
	if err != nil {
		return domain.Identity{}, false
	}

	var identity domain.Identity
	if err := json.Unmarshal([]byte(payload), &identity); err != nil {
		s.logger.Warn("failed to decode session payload", slog.String("error", err.Error()))
		return domain.Identity{}, false
	}
	return identity, true
}

// Create stores a fresh snapshot and sets the session cookie.
func (s *Store) Create(w http.ResponseWriter, r *http.Request, identity domain.Identity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	sid := uuid.NewString()
	if err := s.backend.Set(r.Context(), sessionKey(sid), payload, s.ttl); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear deletes the session wholesale and expires the cookie.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		if err := s.backend.Delete(r.Context(), sessionKey(cookie.Value)); err != nil {
			s.logger.Warn("failed to delete session", slog.String("error", err.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionKey(sid string) string {
	return "session:" + sid
}
