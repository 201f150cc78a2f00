package repository

import (
	"database/sql"
	"log/slog"

	"github.com/yourorg/adminbase/internal/domain"
)

// capLimit bounds telemetry listings to protect response size.
func capLimit(limit, fallback int) int {
	if limit <= 0 || limit > fallback {
		return fallback
	}
	return limit
}

// PostgresAnalyticsRepository implements domain.AnalyticsRepository against
// store B. All rows are append-only.
type PostgresAnalyticsRepository struct {
	db           *sql.DB
	defaultLimit int
	logger       *slog.Logger
}

func NewPostgresAnalyticsRepository(db *sql.DB, defaultLimit int, logger *slog.Logger) *PostgresAnalyticsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLimit <= 0 {
		defaultLimit = 100
	}

	return &PostgresAnalyticsRepository{
		db:           db,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// CreateEvent appends an analytics event.
func (r *PostgresAnalyticsRepository) CreateEvent(event *domain.AnalyticsEvent) error {
	query := `
		INSERT INTO analytics (user_id, event_type, event_data)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp
	`

	err := r.db.QueryRow(
		query,
		event.UserID,
		event.EventType,
		nullRaw(event.EventData),
	).Scan(&event.ID, &event.Timestamp)

	if err != nil {
		r.logger.Error("failed to create analytics event",
			slog.String("event_type", event.EventType),
			slog.String("error", err.Error()),
		)
		return storeError("create analytics event")
	}

	return nil
}

// ListEvents returns events newest-first, optionally filtered by user and
// event type, capped at the default limit.
func (r *PostgresAnalyticsRepository) ListEvents(filter domain.AnalyticsFilter) ([]*domain.AnalyticsEvent, error) {
	query := `
		SELECT id, user_id, event_type, event_data, timestamp
		FROM analytics
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR event_type = $2)
		ORDER BY timestamp DESC
		LIMIT $3
	`

	rows, err := r.db.Query(query, filter.UserID, filter.EventType, capLimit(filter.Limit, r.defaultLimit))
	if err != nil {
		r.logger.Error("failed to list analytics events", slog.String("error", err.Error()))
		return nil, storeError("list analytics events")
	}
	defer rows.Close()

	var events []*domain.AnalyticsEvent
	for rows.Next() {
		event := &domain.AnalyticsEvent{}
		var data []byte
		if err := rows.Scan(&event.ID, &event.UserID, &event.EventType, &data, &event.Timestamp); err != nil {
			r.logger.Error("failed to scan analytics row", slog.String("error", err.Error()))
			return nil, storeError("list analytics events")
		}
		event.EventData = data
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("list analytics events")
	}
	return events, nil
}

// CreateUserLog appends a user activity log row.
func (r *PostgresAnalyticsRepository) CreateUserLog(log *domain.UserLog) error {
	query := `
		INSERT INTO user_logs (user_id, action, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		log.UserID,
		log.Action,
		nullString(log.IPAddress),
		nullString(log.UserAgent),
	).Scan(&log.ID, &log.CreatedAt)

	if err != nil {
		r.logger.Error("failed to create user log",
			slog.String("action", log.Action),
			slog.String("error", err.Error()),
		)
		return storeError("create user log")
	}

	return nil
}

// ListUserLogs returns user logs newest-first, capped at the default limit.
func (r *PostgresAnalyticsRepository) ListUserLogs(filter domain.UserLogFilter) ([]*domain.UserLog, error) {
	query := `
		SELECT id, user_id, action, ip_address, user_agent, created_at
		FROM user_logs
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(query, filter.UserID, filter.Action, capLimit(filter.Limit, r.defaultLimit))
	if err != nil {
		r.logger.Error("failed to list user logs", slog.String("error", err.Error()))
		return nil, storeError("list user logs")
	}
	defer rows.Close()

	var logs []*domain.UserLog
	for rows.Next() {
		log := &domain.UserLog{}
		var ip, agent sql.NullString
		if err := rows.Scan(&log.ID, &log.UserID, &log.Action, &ip, &agent, &log.CreatedAt); err != nil {
			r.logger.Error("failed to scan user log row", slog.String("error", err.Error()))
			return nil, storeError("list user logs")
		}
		log.IPAddress = ip.String
		log.UserAgent = agent.String
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("list user logs")
	}
	return logs, nil
}

func nullRaw(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data
}
