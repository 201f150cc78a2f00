package auth

import "github.com/yourorg/adminbase/internal/domain"

// RequireAuthenticated allows any resolved identity and fails with
// ErrUnauthenticated when there is none. Pure function, performs no I/O.
func RequireAuthenticated(identity *domain.Identity) (*domain.Identity, error) {
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	return identity, nil
}

// RequireAdmin allows only superuser identities. A missing identity fails
// with ErrUnauthenticated, a non-superuser with ErrForbidden.
func RequireAdmin(identity *domain.Identity) (*domain.Identity, error) {
	identity, err := RequireAuthenticated(identity)
	if err != nil {
		return nil, err
	}
	if !identity.IsSuperuser {
		return nil, domain.ErrForbidden
	}
	return identity, nil
}
