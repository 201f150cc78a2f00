package auth

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/adminbase/internal/domain"
)

// SessionReader exposes the identity snapshot stored in the request's
// server-side session, if any.
type SessionReader interface {
	Snapshot(r *http.Request) (domain.Identity, bool)
}

// Resolver turns an inbound request into a resolved identity, or nil when
// the request carries no usable credentials.
type Resolver struct {
	sessions SessionReader
	tokens   *TokenManager
	users    domain.UserRepository
	logger   *slog.Logger
}

func NewResolver(sessions SessionReader, tokens *TokenManager, users domain.UserRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{sessions: sessions, tokens: tokens, users: users, logger: logger}
}

// Resolve checks the session first and returns its snapshot verbatim; a
// session's cached is_superuser flag will not reflect an admin-status change
// until re-login, bounded by the session TTL. With no session it falls back
// to a bearer token, which always reads the current user row.
func (rs *Resolver) Resolve(r *http.Request) *domain.Identity {
	if rs.sessions != nil {
		if snapshot, ok := rs.sessions.Snapshot(r); ok {
			return &snapshot
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}

	tokenString, err := ExtractToken(authHeader)
	if err != nil {
		return nil
	}

	claims, err := rs.tokens.Validate(tokenString)
	if err != nil {
		rs.logger.Debug("bearer token rejected", slog.String("error", err.Error()))
		return nil
	}

	user, err := rs.users.GetByEmail(claims.Subject)
	if err != nil {
		return nil
	}

	identity := domain.IdentityFromUser(user)
	return &identity
}
