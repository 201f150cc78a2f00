package domain

import (
	"encoding/json"
	"time"
)

// Severity levels accepted for system events.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityError    = "ERROR"
	SeverityCritical = "CRITICAL"
)

// ValidSeverity reports whether s is one of the accepted severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// AnalyticsEvent is an append-only row in the analytics store (store B).
// user_id references a user in store A but is not enforced across stores.
type AnalyticsEvent struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// UserLog is an append-only activity row in the analytics store (store B).
type UserLog struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SystemEvent is an append-only row in the operations store (store C).
// This store has no knowledge of users.
type SystemEvent struct {
	ID            int64           `json:"id"`
	EventType     string          `json:"event_type"`
	Severity      string          `json:"severity"`
	Message       string          `json:"message"`
	EventMetadata json.RawMessage `json:"event_metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PerformanceMetric is an append-only row in the operations store (store C).
type PerformanceMetric struct {
	ID          int64           `json:"id"`
	MetricName  string          `json:"metric_name"`
	MetricValue float64         `json:"metric_value"`
	Unit        string          `json:"unit,omitempty"`
	Tags        json.RawMessage `json:"tags,omitempty"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// AnalyticsFilter narrows analytics event listings. Zero values mean "any".
type AnalyticsFilter struct {
	UserID    string
	EventType string
	Limit     int
}

// UserLogFilter narrows user log listings.
type UserLogFilter struct {
	UserID string
	Action string
	Limit  int
}

// SystemEventFilter narrows system event listings.
type SystemEventFilter struct {
	EventType string
	Severity  string
	Limit     int
}

// MetricFilter narrows performance metric listings.
type MetricFilter struct {
	MetricName string
	Limit      int
}

// AnalyticsRepository defines data access for store B. All writes are
// append-only; rows are never updated or deleted by the application.
type AnalyticsRepository interface {
	CreateEvent(event *AnalyticsEvent) error
	ListEvents(filter AnalyticsFilter) ([]*AnalyticsEvent, error)
	CreateUserLog(log *UserLog) error
	ListUserLogs(filter UserLogFilter) ([]*UserLog, error)
}

// TelemetryRepository defines data access for store C.
type TelemetryRepository interface {
	CreateSystemEvent(event *SystemEvent) error
	ListSystemEvents(filter SystemEventFilter) ([]*SystemEvent, error)
	CreateMetric(metric *PerformanceMetric) error
	ListMetrics(filter MetricFilter) ([]*PerformanceMetric, error)
}
