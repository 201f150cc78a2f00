package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/security/audit"
	"github.com/yourorg/adminbase/internal/security/middleware"
)

// Shared in-memory fakes for handler tests.

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func asAdmin(r *http.Request) *http.Request {
	return withIdentity(r, &domain.Identity{ID: "admin-1", Email: "admin@example.com", Username: "admin", IsActive: true, IsSuperuser: true})
}

func asUser(r *http.Request) *http.Request {
	return withIdentity(r, &domain.Identity{ID: "user-1", Email: "user@example.com", Username: "user", IsActive: true})
}

func withIdentity(r *http.Request, identity *domain.Identity) *http.Request {
	return r.WithContext(middleware.ContextWithIdentity(r.Context(), identity))
}

func testAudit() *audit.Recorder {
	return audit.NewRecorder(testLogger, nil)
}

type fakeUserRepo struct {
	byID map[string]*domain.User
	seq  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(u *domain.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email || existing.Username == u.Username {
			return domain.ErrAlreadyExists
		}
	}
	if u.ID == "" {
		f.seq++
		u.ID = fmt.Sprintf("u-%d", f.seq)
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	copied := *u
	f.byID[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(username string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByActivationToken(token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	for _, u := range f.byID {
		if u.ActivationToken == token {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) Update(u *domain.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	copied := *u
	f.byID[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Delete(id string) (bool, error) {
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	return true, nil
}

func (f *fakeUserRepo) List(opts domain.UserListOptions) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range f.byID {
		copied := *u
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeSettingRepo struct {
	byName map[string]*domain.Setting
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{byName: map[string]*domain.Setting{}}
}

func (f *fakeSettingRepo) Create(s *domain.Setting) error {
	if _, ok := f.byName[s.SettingName]; ok {
		return domain.ErrAlreadyExists
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	copied := *s
	f.byName[s.SettingName] = &copied
	return nil
}

func (f *fakeSettingRepo) Get(name string) (*domain.Setting, error) {
	if s, ok := f.byName[name]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSettingRepo) Update(name, value string) (*domain.Setting, error) {
	s, ok := f.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.Value = value
	s.UpdatedAt = time.Now()
	copied := *s
	return &copied, nil
}

func (f *fakeSettingRepo) Delete(name string) (bool, error) {
	if _, ok := f.byName[name]; !ok {
		return false, nil
	}
	delete(f.byName, name)
	return true, nil
}

func (f *fakeSettingRepo) List(opts domain.SettingListOptions) ([]*domain.Setting, error) {
	out := []*domain.Setting{}
	for _, s := range f.byName {
		copied := *s
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettingName < out[j].SettingName })
	return out, nil
}

type fakeAnalyticsRepo struct {
	events []*domain.AnalyticsEvent
	logs   []*domain.UserLog
}

func (f *fakeAnalyticsRepo) CreateEvent(event *domain.AnalyticsEvent) error {
	event.ID = int64(len(f.events) + 1)
	event.Timestamp = time.Now()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAnalyticsRepo) ListEvents(filter domain.AnalyticsFilter) ([]*domain.AnalyticsEvent, error) {
	out := []*domain.AnalyticsEvent{}
	for _, e := range f.events {
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

func (f *fakeAnalyticsRepo) CreateUserLog(log *domain.UserLog) error {
	log.ID = int64(len(f.logs) + 1)
	log.CreatedAt = time.Now()
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeAnalyticsRepo) ListUserLogs(filter domain.UserLogFilter) ([]*domain.UserLog, error) {
	out := []*domain.UserLog{}
	for _, l := range f.logs {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type fakeOpsRepo struct {
	events  []*domain.SystemEvent
	metrics []*domain.PerformanceMetric
}

func (f *fakeOpsRepo) CreateSystemEvent(event *domain.SystemEvent) error {
	event.ID = int64(len(f.events) + 1)
	event.CreatedAt = time.Now()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOpsRepo) ListSystemEvents(filter domain.SystemEventFilter) ([]*domain.SystemEvent, error) {
	return f.events, nil
}

func (f *fakeOpsRepo) CreateMetric(metric *domain.PerformanceMetric) error {
	metric.ID = int64(len(f.metrics) + 1)
	metric.RecordedAt = time.Now()
	f.metrics = append(f.metrics, metric)
	return nil
}

func (f *fakeOpsRepo) ListMetrics(filter domain.MetricFilter) ([]*domain.PerformanceMetric, error) {
	return f.metrics, nil
}

// memBackend is an in-memory stand-in for the redis session backend.
type memBackend struct {
	values map[string]string
}

func newMemBackend() *memBackend {
	return &memBackend{values: map[string]string{}}
}

func (m *memBackend) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = fmt.Sprintf("%s", value)
	return nil
}

func (m *memBackend) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("key not found")
}

func (m *memBackend) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}
