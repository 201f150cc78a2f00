package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/observability/metrics"
)

// TelemetryService routes analytics, log, event, and metric records to
// their backing stores. Writes that reference a user verify the user
// against the primary store first; the two steps are independent
// transactions with no atomicity between them — a crash in between leaves
// the event missing, which is accepted best-effort behavior.
type TelemetryService struct {
	users     domain.UserRepository
	analytics domain.AnalyticsRepository
	ops       domain.TelemetryRepository
	logger    *slog.Logger
}

func NewTelemetryService(
	users domain.UserRepository,
	analytics domain.AnalyticsRepository,
	ops domain.TelemetryRepository,
	logger *slog.Logger,
) *TelemetryService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TelemetryService{
		users:     users,
		analytics: analytics,
		ops:       ops,
		logger:    logger,
	}
}

func (s *TelemetryService) verifyUser(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id required", domain.ErrValidation)
	}
	if _, err := s.users.GetByID(userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown user", domain.ErrNotFound)
		}
		return err
	}
	return nil
}

// RecordAnalyticsEvent appends an event to the analytics store after
// checking the user exists in the primary store.
func (s *TelemetryService) RecordAnalyticsEvent(userID, eventType string, eventData json.RawMessage) (*domain.AnalyticsEvent, error) {
	if eventType == "" {
		return nil, fmt.Errorf("%w: event_type required", domain.ErrValidation)
	}
	if err := s.verifyUser(userID); err != nil {
		return nil, err
	}

	event := &domain.AnalyticsEvent{
		UserID:    userID,
		EventType: eventType,
		EventData: eventData,
	}
	if err := s.analytics.CreateEvent(event); err != nil {
		metrics.ObserveStoreOperation("analytics", "create_event", "failure")
		return nil, err
	}
	metrics.ObserveStoreOperation("analytics", "create_event", "success")
	return event, nil
}

// RecordUserLog appends an activity row to the analytics store after
// checking the user exists in the primary store.
func (s *TelemetryService) RecordUserLog(userID, action, ipAddress, userAgent string) (*domain.UserLog, error) {
	if action == "" {
		return nil, fmt.Errorf("%w: action required", domain.ErrValidation)
	}
	if err := s.verifyUser(userID); err != nil {
		return nil, err
	}

	log := &domain.UserLog{
		UserID:    userID,
		Action:    action,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.analytics.CreateUserLog(log); err != nil {
		metrics.ObserveStoreOperation("analytics", "create_user_log", "failure")
		return nil, err
	}
	metrics.ObserveStoreOperation("analytics", "create_user_log", "success")
	return log, nil
}

// RecordSystemEvent appends a system event to the operations store. No user
// check applies; store C has no knowledge of users.
func (s *TelemetryService) RecordSystemEvent(eventType, severity, message string, metadata json.RawMessage) (*domain.SystemEvent, error) {
	if eventType == "" || message == "" {
		return nil, fmt.Errorf("%w: event_type and message required", domain.ErrValidation)
	}
	if !domain.ValidSeverity(severity) {
		return nil, fmt.Errorf("%w: severity must be one of INFO, WARNING, ERROR, CRITICAL", domain.ErrValidation)
	}

	event := &domain.SystemEvent{
		EventType:     eventType,
		Severity:      severity,
		Message:       message,
		EventMetadata: metadata,
	}
	if err := s.ops.CreateSystemEvent(event); err != nil {
		metrics.ObserveStoreOperation("ops", "create_system_event", "failure")
		return nil, err
	}
	metrics.ObserveStoreOperation("ops", "create_system_event", "success")
	return event, nil
}

// RecordMetric appends a performance metric to the operations store.
func (s *TelemetryService) RecordMetric(name string, value float64, unit string, tags json.RawMessage) (*domain.PerformanceMetric, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: metric_name required", domain.ErrValidation)
	}

	metric := &domain.PerformanceMetric{
		MetricName:  name,
		MetricValue: value,
		Unit:        unit,
		Tags:        tags,
	}
	if err := s.ops.CreateMetric(metric); err != nil {
		metrics.ObserveStoreOperation("ops", "create_metric", "failure")
		return nil, err
	}
	metrics.ObserveStoreOperation("ops", "create_metric", "success")
	return metric, nil
}

// ListAnalyticsEvents returns analytics events newest-first.
func (s *TelemetryService) ListAnalyticsEvents(filter domain.AnalyticsFilter) ([]*domain.AnalyticsEvent, error) {
	return s.analytics.ListEvents(filter)
}

// ListUserLogs returns user logs newest-first.
func (s *TelemetryService) ListUserLogs(filter domain.UserLogFilter) ([]*domain.UserLog, error) {
	return s.analytics.ListUserLogs(filter)
}

// ListSystemEvents returns system events newest-first.
func (s *TelemetryService) ListSystemEvents(filter domain.SystemEventFilter) ([]*domain.SystemEvent, error) {
	return s.ops.ListSystemEvents(filter)
}

// ListMetrics returns performance metrics newest-first.
func (s *TelemetryService) ListMetrics(filter domain.MetricFilter) ([]*domain.PerformanceMetric, error) {
	return s.ops.ListMetrics(filter)
}
