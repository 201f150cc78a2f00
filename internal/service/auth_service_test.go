package service

import (
	"errors"
	"testing"
	"time"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/security/auth"
)

func seedActiveUser(t *testing.T, repo *memUserRepo, email, username, password string) *domain.User {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	user := &domain.User{
		Email:          email,
		Username:       username,
		HashedPassword: hashed,
		IsActive:       true,
	}
	if err := repo.Create(user); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return user
}

func TestLoginByEmailOrUsername(t *testing.T) {
	repo := newMemUserRepo()
	seedActiveUser(t, repo, "alice@example.com", "alice", "Password123")
	s := NewAuthService(repo, auth.NewTokenManager("secret", "", 30*time.Minute), nil)

	user, token, err := s.Login("alice@example.com", "Password123")
	if err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
	if token == "" || user.Username != "alice" {
		t.Fatalf("expected token and user, got token=%q user=%v", token, user)
	}

	if _, token, err = s.Login("alice", "Password123"); err != nil || token == "" {
		t.Fatalf("login by username failed: token=%q err=%v", token, err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newMemUserRepo()
	seedActiveUser(t, repo, "bob@example.com", "bob", "Password123")
	s := NewAuthService(repo, auth.NewTokenManager("secret", "", 30*time.Minute), nil)

	_, _, unknownErr := s.Login("nobody@example.com", "Password123")
	_, _, wrongPassErr := s.Login("bob@example.com", "WrongPassword")

	if !errors.Is(unknownErr, domain.ErrUnauthenticated) {
		t.Fatalf("unknown account: expected ErrUnauthenticated, got %v", unknownErr)
	}
	if !errors.Is(wrongPassErr, domain.ErrUnauthenticated) {
		t.Fatalf("wrong password: expected ErrUnauthenticated, got %v", wrongPassErr)
	}
	// Both failures surface the same sentinel so responses cannot be used to
	// probe which accounts exist.
	if unknownErr.Error() != wrongPassErr.Error() {
		t.Fatalf("failure messages differ: %q vs %q", unknownErr, wrongPassErr)
	}
}

func TestLoginBlocksInactiveAccount(t *testing.T) {
	repo := newMemUserRepo()
	user := seedActiveUser(t, repo, "carol@example.com", "carol", "Password123")
	row := repo.byID[user.ID]
	row.IsActive = false

	s := NewAuthService(repo, auth.NewTokenManager("secret", "", 30*time.Minute), nil)
	if _, _, err := s.Login("carol@example.com", "Password123"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for inactive account, got %v", err)
	}
}

func TestLoginTokenSubjectIsEmail(t *testing.T) {
	repo := newMemUserRepo()
	seedActiveUser(t, repo, "dave@example.com", "dave", "Password123")
	tm := auth.NewTokenManager("secret", "", 30*time.Minute)
	s := NewAuthService(repo, tm, nil)

	_, token, err := s.Login("dave", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := tm.Validate(token)
	if err != nil {
		t.Fatalf("issued token failed validation: %v", err)
	}
	if claims.Subject != "dave@example.com" {
		t.Fatalf("expected email subject, got %q", claims.Subject)
	}
}
