package domain

import "time"

// User is the persisted account row in the primary store.
type User struct {
	ID                     string // UUID
	Email                  string // Unique email address
	Username               string // Unique username
	HashedPassword         string // Bcrypt hash (never returned in API responses)
	FullName               string
	IsActive               bool
	IsSuperuser            bool
	ActivationToken        string // Set only while an activation is pending
	ActivationTokenExpires time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Identity is the request-scoped view of "who is calling", built fresh on
// every request from either a session snapshot or a decoded bearer token.
// It is never persisted.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FullName    string `json:"full_name,omitempty"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

// IdentityFromUser builds the request-scoped identity view of a user row.
func IdentityFromUser(u *User) Identity {
	return Identity{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
	}
}

// UserUpdate carries a partial update: nil fields are left untouched.
type UserUpdate struct {
	Email       *string
	Username    *string
	Password    *string
	FullName    *string
	IsActive    *bool
	IsSuperuser *bool
}

// UserListOptions controls pagination and ordering of user listings.
// Unknown sort fields fall back to default store order.
type UserListOptions struct {
	Skip      int
	Limit     int
	SortField string
	SortDesc  bool
}

// UserRepository defines data access for users (store A).
type UserRepository interface {
	Create(user *User) error
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByUsername(username string) (*User, error)
	GetByActivationToken(token string) (*User, error)
	Update(user *User) error
	Delete(id string) (bool, error)
	List(opts UserListOptions) ([]*User, error)
}
