package service

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/yourorg/adminbase/internal/domain"
)

type memAnalyticsRepo struct {
	events []*domain.AnalyticsEvent
	logs   []*domain.UserLog
}

func (m *memAnalyticsRepo) CreateEvent(event *domain.AnalyticsEvent) error {
	event.ID = int64(len(m.events) + 1)
	m.events = append(m.events, event)
	return nil
}

func (m *memAnalyticsRepo) ListEvents(filter domain.AnalyticsFilter) ([]*domain.AnalyticsEvent, error) {
	out := []*domain.AnalyticsEvent{}
	for _, e := range m.events {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memAnalyticsRepo) CreateUserLog(log *domain.UserLog) error {
	log.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, log)
	return nil
}

func (m *memAnalyticsRepo) ListUserLogs(filter domain.UserLogFilter) ([]*domain.UserLog, error) {
	out := []*domain.UserLog{}
	for _, l := range m.logs {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type memOpsRepo struct {
	events  []*domain.SystemEvent
	metrics []*domain.PerformanceMetric
}

func (m *memOpsRepo) CreateSystemEvent(event *domain.SystemEvent) error {
	event.ID = int64(len(m.events) + 1)
	m.events = append(m.events, event)
	return nil
}

func (m *memOpsRepo) ListSystemEvents(filter domain.SystemEventFilter) ([]*domain.SystemEvent, error) {
	return m.events, nil
}

func (m *memOpsRepo) CreateMetric(metric *domain.PerformanceMetric) error {
	metric.ID = int64(len(m.metrics) + 1)
	m.metrics = append(m.metrics, metric)
	return nil
}

func (m *memOpsRepo) ListMetrics(filter domain.MetricFilter) ([]*domain.PerformanceMetric, error) {
	return m.metrics, nil
}

func newTelemetryFixture(t *testing.T) (*TelemetryService, *memUserRepo, *memAnalyticsRepo, *memOpsRepo) {
	t.Helper()
	users := newMemUserRepo()
	analytics := &memAnalyticsRepo{}
	ops := &memOpsRepo{}
	return NewTelemetryService(users, analytics, ops, nil), users, analytics, ops
}

func TestRecordAnalyticsEventVerifiesUser(t *testing.T) {
	s, users, analytics, _ := newTelemetryFixture(t)
	user := seedActiveUser(t, users, "tel@example.com", "tel", "Password123")

	event, err := s.RecordAnalyticsEvent(user.ID, "page_view", json.RawMessage(`{"path":"/"}`))
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if event.ID == 0 || len(analytics.events) != 1 {
		t.Fatalf("event not appended: %+v", event)
	}

	if _, err := s.RecordAnalyticsEvent("no-such-user", "page_view", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown user should fail with ErrNotFound, got %v", err)
	}
	if _, err := s.RecordAnalyticsEvent("", "page_view", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty user should fail validation, got %v", err)
	}
	if _, err := s.RecordAnalyticsEvent(user.ID, "", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty event type should fail validation, got %v", err)
	}
	if len(analytics.events) != 1 {
		t.Fatalf("failed writes must not append rows, have %d", len(analytics.events))
	}
}

func TestRecordUserLogVerifiesUser(t *testing.T) {
	s, users, analytics, _ := newTelemetryFixture(t)
	user := seedActiveUser(t, users, "log@example.com", "logger", "Password123")

	log, err := s.RecordUserLog(user.ID, "login", "10.0.0.1", "curl/8")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if log.IPAddress != "10.0.0.1" || len(analytics.logs) != 1 {
		t.Fatalf("log not appended: %+v", log)
	}

	if _, err := s.RecordUserLog("missing", "login", "", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown user should fail with ErrNotFound, got %v", err)
	}
}

func TestRecordSystemEventSeverity(t *testing.T) {
	s, _, _, ops := newTelemetryFixture(t)

	event, err := s.RecordSystemEvent("backup", domain.SeverityInfo, "nightly backup finished", nil)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if event.Severity != "INFO" || len(ops.events) != 1 {
		t.Fatalf("event not appended: %+v", event)
	}

	if _, err := s.RecordSystemEvent("backup", "DEBUG", "msg", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("invalid severity should fail validation, got %v", err)
	}
	if _, err := s.RecordSystemEvent("", domain.SeverityInfo, "msg", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty event type should fail validation, got %v", err)
	}
}

func TestRecordMetric(t *testing.T) {
	s, _, _, ops := newTelemetryFixture(t)

	metric, err := s.RecordMetric("request_latency", 12.5, "ms", json.RawMessage(`{"route":"/api/users"}`))
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if metric.MetricValue != 12.5 || len(ops.metrics) != 1 {
		t.Fatalf("metric not appended: %+v", metric)
	}

	if _, err := s.RecordMetric("", 1, "", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty name should fail validation, got %v", err)
	}
}
