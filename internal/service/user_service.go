package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/notification"
	"github.com/yourorg/adminbase/internal/security/auth"
)

// UserService owns the user lifecycle: registration with the activation
// workflow, partial updates, and hard deletes.
type UserService struct {
	users         domain.UserRepository
	sender        notification.Sender
	activationTTL time.Duration
	logger        *slog.Logger
}

func NewUserService(
	users domain.UserRepository,
	sender notification.Sender,
	activationTTL time.Duration,
	logger *slog.Logger,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	if activationTTL <= 0 {
		activationTTL = 24 * time.Hour
	}

	return &UserService{
		users:         users,
		sender:        sender,
		activationTTL: activationTTL,
		logger:        logger,
	}
}

// CreateUserInput carries the fields accepted at registration time.
// IsSuperuser is only honored on admin-created accounts; the registration
// handler never sets it.
type CreateUserInput struct {
	Email       string
	Username    string
	Password    string
	FullName    string
	IsSuperuser bool
}

// Create registers a new user. The account starts inactive with a pending
// activation token; the activation email is best-effort and a failed send
// does not roll back the created row.
func (s *UserService) Create(input CreateUserInput) (*domain.User, error) {
	if err := validateNewUser(input); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := auth.GenerateActivationToken()
	if err != nil {
		s.logger.Error("failed to generate activation token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("create user: %w", err)
	}

	user := &domain.User{
		Email:                  strings.ToLower(strings.TrimSpace(input.Email)),
		Username:               strings.TrimSpace(input.Username),
		HashedPassword:         hashed,
		FullName:               strings.TrimSpace(input.FullName),
		IsActive:               false,
		IsSuperuser:            input.IsSuperuser,
		ActivationToken:        token,
		ActivationTokenExpires: time.Now().Add(s.activationTTL),
	}

	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	if !s.sender.SendActivationNotice(user.Email, user.Username, token) {
		s.logger.Warn("activation email not delivered",
			slog.String("user_id", user.ID),
			slog.String("email", user.Email),
		)
	}

	s.logger.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Activate consumes an activation token exactly once, flipping the account
// from inactive to active. An expired token fails and leaves the row
// untouched; a replay of a consumed token fails because the token was
// cleared on first use.
func (s *UserService) Activate(token string) (*domain.User, error) {
	user, err := s.users.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	if !user.ActivationTokenExpires.IsZero() && user.ActivationTokenExpires.Before(time.Now()) {
		s.logger.Info("activation attempted with expired token", slog.String("user_id", user.ID))
		return nil, domain.ErrInvalidToken
	}

	user.IsActive = true
	user.ActivationToken = ""
	user.ActivationTokenExpires = time.Time{}

	if err := s.users.Update(user); err != nil {
		return nil, err
	}

	if !s.sender.SendWelcomeNotice(user.Email, user.Username) {
		s.logger.Warn("welcome email not delivered",
			slog.String("user_id", user.ID),
			slog.String("email", user.Email),
		)
	}

	s.logger.Info("user activated", slog.String("user_id", user.ID))
	return user, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(id string) (*domain.User, error) {
	return s.users.GetByID(id)
}

// List returns users with pagination and optional sorting.
func (s *UserService) List(opts domain.UserListOptions) ([]*domain.User, error) {
	return s.users.List(opts)
}

// Update applies only the explicitly supplied fields; nil fields are left
// untouched, never reset.
func (s *UserService) Update(id string, update domain.UserUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
		}
		user.Email = email
	}
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username required", domain.ErrValidation)
		}
		user.Username = username
	}
	if update.Password != nil {
		if len(*update.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
		}
		hashed, err := auth.HashPassword(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		user.HashedPassword = hashed
	}
	if update.FullName != nil {
		user.FullName = strings.TrimSpace(*update.FullName)
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}
	if update.IsSuperuser != nil {
		user.IsSuperuser = *update.IsSuperuser
	}

	if err := s.users.Update(user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", slog.String("user_id", user.ID))
	return user, nil
}

// Delete hard-deletes a user. Returns false when the ID does not exist.
func (s *UserService) Delete(id string) (bool, error) {
	deleted, err := s.users.Delete(id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("user deleted", slog.String("user_id", id))
	}
	return deleted, nil
}

func validateNewUser(input CreateUserInput) error {
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email required", domain.ErrValidation)
	}
	if strings.TrimSpace(input.Username) == "" {
		return fmt.Errorf("%w: username required", domain.ErrValidation)
	}
	if len(input.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	return nil
}
