package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/security/auth"
)

// AuthService authenticates credentials and issues access tokens.
type AuthService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	logger *slog.Logger
}

func NewAuthService(users domain.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Login verifies credentials against the primary store and issues a token
// whose subject is the user's email. The identifier may be an email address
// or a username. Unknown account and wrong password fail identically so the
// response never reveals whether an email exists.
func (s *AuthService) Login(identifier, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(identifier)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.users.GetByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login attempt for unknown account")
			return nil, "", domain.ErrUnauthenticated
		}
		return nil, "", err
	}

	if err := auth.VerifyPassword(user.HashedPassword, password); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		return nil, "", domain.ErrUnauthenticated
	}

	if !user.IsActive {
		return nil, "", fmt.Errorf("%w: account not activated", domain.ErrForbidden)
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("login: %w", err)
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, token, nil
}
