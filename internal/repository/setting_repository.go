package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/adminbase/internal/domain"
)

// PostgresSettingRepository implements domain.SettingRepository against
// store A. The setting name is the primary key.
type PostgresSettingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresSettingRepository(db *sql.DB, logger *slog.Logger) *PostgresSettingRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSettingRepository{
		db:     db,
		logger: logger,
	}
}

var settingSortColumns = map[string]string{
	"setting_name": "setting_name",
	"value":        "value",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

// Create inserts a new setting. A duplicate name surfaces as
// domain.ErrAlreadyExists.
func (r *PostgresSettingRepository) Create(setting *domain.Setting) error {
	query := `
		INSERT INTO settings (setting_name, value)
		VALUES ($1, $2)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(query, setting.SettingName, setting.Value).
		Scan(&setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		r.logger.Error("failed to create setting",
			slog.String("setting_name", setting.SettingName),
			slog.String("error", err.Error()),
		)
		return storeError("create setting")
	}

	return nil
}

// Get retrieves a setting by name.
func (r *PostgresSettingRepository) Get(name string) (*domain.Setting, error) {
	setting := &domain.Setting{}

	query := `
		SELECT setting_name, value, created_at, updated_at
		FROM settings
		WHERE setting_name = $1
	`

	err := r.db.QueryRow(query, name).Scan(
		&setting.SettingName,
		&setting.Value,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get setting",
			slog.String("setting_name", name),
			slog.String("error", err.Error()),
		)
		return nil, storeError("get setting")
	}

	return setting, nil
}

// Update overwrites the value in place.
func (r *PostgresSettingRepository) Update(name, value string) (*domain.Setting, error) {
	setting := &domain.Setting{SettingName: name, Value: value}

	query := `
		UPDATE settings
		SET value = $1, updated_at = now()
		WHERE setting_name = $2
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(query, value, name).Scan(&setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to update setting",
			slog.String("setting_name", name),
			slog.String("error", err.Error()),
		)
		return nil, storeError("update setting")
	}

	return setting, nil
}

// Delete hard-deletes a setting. A missing name returns (false, nil).
func (r *PostgresSettingRepository) Delete(name string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM settings WHERE setting_name = $1`, name)
	if err != nil {
		r.logger.Error("failed to delete setting",
			slog.String("setting_name", name),
			slog.String("error", err.Error()),
		)
		return false, storeError("delete setting")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, storeError("delete setting")
	}

	return rows > 0, nil
}

// List returns all settings with optional whitelisted sorting.
func (r *PostgresSettingRepository) List(opts domain.SettingListOptions) ([]*domain.Setting, error) {
	query := `SELECT setting_name, value, created_at, updated_at FROM settings`

	if column, ok := settingSortColumns[opts.SortField]; ok {
		direction := "ASC"
		if opts.SortDesc {
			direction = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", column, direction)
	}

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("failed to list settings", slog.String("error", err.Error()))
		return nil, storeError("list settings")
	}
	defer rows.Close()

	var settings []*domain.Setting
	for rows.Next() {
		setting := &domain.Setting{}
		err := rows.Scan(
			&setting.SettingName,
			&setting.Value,
			&setting.CreatedAt,
			&setting.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan setting row", slog.String("error", err.Error()))
			return nil, storeError("list settings")
		}
		settings = append(settings, setting)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("list settings")
	}
	return settings, nil
}
