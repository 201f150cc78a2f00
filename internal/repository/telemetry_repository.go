package repository

import (
	"database/sql"
	"log/slog"

	"github.com/yourorg/adminbase/internal/domain"
)

// PostgresTelemetryRepository implements domain.TelemetryRepository against
// store C. This store carries no user references.
type PostgresTelemetryRepository struct {
	db           *sql.DB
	defaultLimit int
	logger       *slog.Logger
}

func NewPostgresTelemetryRepository(db *sql.DB, defaultLimit int, logger *slog.Logger) *PostgresTelemetryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLimit <= 0 {
		defaultLimit = 100
	}

	return &PostgresTelemetryRepository{
		db:           db,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// CreateSystemEvent appends a system event row.
func (r *PostgresTelemetryRepository) CreateSystemEvent(event *domain.SystemEvent) error {
	query := `
		INSERT INTO system_events (event_type, severity, message, event_metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		event.EventType,
		event.Severity,
		event.Message,
		nullRaw(event.EventMetadata),
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		r.logger.Error("failed to create system event",
			slog.String("event_type", event.EventType),
			slog.String("error", err.Error()),
		)
		return storeError("create system event")
	}

	return nil
}

// ListSystemEvents returns system events newest-first, capped at the
// default limit.
func (r *PostgresTelemetryRepository) ListSystemEvents(filter domain.SystemEventFilter) ([]*domain.SystemEvent, error) {
	query := `
		SELECT id, event_type, severity, message, event_metadata, created_at
		FROM system_events
		WHERE ($1 = '' OR event_type = $1)
		  AND ($2 = '' OR severity = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(query, filter.EventType, filter.Severity, capLimit(filter.Limit, r.defaultLimit))
	if err != nil {
		r.logger.Error("failed to list system events", slog.String("error", err.Error()))
		return nil, storeError("list system events")
	}
	defer rows.Close()

	var events []*domain.SystemEvent
	for rows.Next() {
		event := &domain.SystemEvent{}
		var metadata []byte
		if err := rows.Scan(&event.ID, &event.EventType, &event.Severity, &event.Message, &metadata, &event.CreatedAt); err != nil {
			r.logger.Error("failed to scan system event row", slog.String("error", err.Error()))
			return nil, storeError("list system events")
		}
		event.EventMetadata = metadata
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("list system events")
	}
	return events, nil
}

// CreateMetric appends a performance metric row.
func (r *PostgresTelemetryRepository) CreateMetric(metric *domain.PerformanceMetric) error {
	query := `
		INSERT INTO performance_metrics (metric_name, metric_value, unit, tags)
		VALUES ($1, $2, $3, $4)
		RETURNING id, recorded_at
	`

	err := r.db.QueryRow(
		query,
		metric.MetricName,
		metric.MetricValue,
		nullString(metric.Unit),
		nullRaw(metric.Tags),
	).Scan(&metric.ID, &metric.RecordedAt)

	if err != nil {
		r.logger.Error("failed to create performance metric",
			slog.String("metric_name", metric.MetricName),
			slog.String("error", err.Error()),
		)
		return storeError("create performance metric")
	}

	return nil
}

// ListMetrics returns performance metrics newest-first, capped at the
// default limit.
func (r *PostgresTelemetryRepository) ListMetrics(filter domain.MetricFilter) ([]*domain.PerformanceMetric, error) {
	query := `
		SELECT id, metric_name, metric_value, unit, tags, recorded_at
		FROM performance_metrics
		WHERE ($1 = '' OR metric_name = $1)
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, filter.MetricName, capLimit(filter.Limit, r.defaultLimit))
	if err != nil {
		r.logger.Error("failed to list performance metrics", slog.String("error", err.Error()))
		return nil, storeError("list performance metrics")
	}
	defer rows.Close()

	var metrics []*domain.PerformanceMetric
	for rows.Next() {
		metric := &domain.PerformanceMetric{}
		var unit sql.NullString
		var tags []byte
		if err := rows.Scan(&metric.ID, &metric.MetricName, &metric.MetricValue, &unit, &tags, &metric.RecordedAt); err != nil {
			r.logger.Error("failed to scan performance metric row", slog.String("error", err.Error()))
			return nil, storeError("list performance metrics")
		}
		metric.Unit = unit.String
		metric.Tags = tags
		metrics = append(metrics, metric)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("list performance metrics")
	}
	return metrics, nil
}
