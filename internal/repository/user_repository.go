package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/yourorg/adminbase/internal/domain"
)

// uniqueViolation is the postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// storeError hides the driver error behind ErrStoreUnavailable so storage
// detail never reaches API responses. The original failure is logged by the
// caller before wrapping.
func storeError(op string) error {
	return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// PostgresUserRepository implements domain.UserRepository against store A.
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

// userSortColumns whitelists the sortable fields. Unknown names fall back to
// default store order instead of erroring.
var userSortColumns = map[string]string{
	"id":         "id",
	"email":      "email",
	"username":   "username",
	"full_name":  "full_name",
	"is_active":  "is_active",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

const userColumns = `id, email, username, hashed_password, full_name, is_active, is_superuser,
		activation_token, activation_token_expires, created_at, updated_at`

// Create inserts a new user row. Duplicate email or username surfaces as
// domain.ErrAlreadyExists.
func (r *PostgresUserRepository) Create(user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, email, username, hashed_password, full_name, is_active, is_superuser,
			activation_token, activation_token_expires)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		user.ID,
		user.Email,
		user.Username,
		user.HashedPassword,
		nullString(user.FullName),
		user.IsActive,
		user.IsSuperuser,
		nullString(user.ActivationToken),
		nullTime(user.ActivationTokenExpires),
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return storeError("create user")
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(id string) (*domain.User, error) {
	return r.getBy("id", id)
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(email string) (*domain.User, error) {
	return r.getBy("email", email)
}

// GetByUsername retrieves a user by username
func (r *PostgresUserRepository) GetByUsername(username string) (*domain.User, error) {
	return r.getBy("username", username)
}

// GetByActivationToken retrieves a user by its pending activation token.
func (r *PostgresUserRepository) GetByActivationToken(token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	return r.getBy("activation_token", token)
}

func (r *PostgresUserRepository) getBy(column, value string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	user, err := scanUser(r.db.QueryRow(query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get user",
			slog.String("column", column),
			slog.String("error", err.Error()),
		)
		return nil, storeError("get user")
	}

	return user, nil
}

// Update writes all mutable fields of the row. Partial-update semantics live
// in the service layer, which mutates a freshly fetched row.
func (r *PostgresUserRepository) Update(user *domain.User) error {
	query := `
		UPDATE users
		SET email = $1, username = $2, hashed_password = $3, full_name = $4,
			is_active = $5, is_superuser = $6, activation_token = $7,
			activation_token_expires = $8, updated_at = now()
		WHERE id = $9
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		user.Email,
		user.Username,
		user.HashedPassword,
		nullString(user.FullName),
		user.IsActive,
		user.IsSuperuser,
		nullString(user.ActivationToken),
		nullTime(user.ActivationTokenExpires),
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		r.logger.Error("failed to update user",
			slog.String("id", user.ID),
			slog.String("error", err.Error()),
		)
		return storeError("update user")
	}

	return nil
}

// Delete hard-deletes a user row. A missing key returns (false, nil).
func (r *PostgresUserRepository) Delete(id string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete user",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return false, storeError("delete user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, storeError("delete user")
	}

	return rows > 0, nil
}

// List returns users with pagination and optional whitelisted sorting.
func (r *PostgresUserRepository) List(opts domain.UserListOptions) ([]*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users`, userColumns)

	if column, ok := userSortColumns[opts.SortField]; ok {
		direction := "ASC"
		if opts.SortDesc {
			direction = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", column, direction)
	}

	query += " OFFSET $1 LIMIT $2"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(query, opts.Skip, limit)
	if err != nil {
		r.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, storeError("list users")
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error("failed to scan user row", slog.String("error", err.Error()))
			return nil, storeError("list users")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("list users")
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var fullName, activationToken sql.NullString
	var activationExpires sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.HashedPassword,
		&fullName,
		&user.IsActive,
		&user.IsSuperuser,
		&activationToken,
		&activationExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.FullName = fullName.String
	user.ActivationToken = activationToken.String
	user.ActivationTokenExpires = activationExpires.Time
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
