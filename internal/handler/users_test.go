package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/adminbase/internal/notification"
	"github.com/yourorg/adminbase/internal/service"
)

func newUsersFixture(t *testing.T) (*UsersHandler, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	userService := service.NewUserService(users, notification.NewNopSender(testLogger), 24*time.Hour, testLogger)
	return NewUsersHandler(userService, testAudit(), testLogger), users
}

func TestUsersEndpointsRequireAdmin(t *testing.T) {
	h, _ := newUsersFixture(t)

	// Anonymous caller.
	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/users", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", w.Code)
	}

	// Authenticated but not superuser.
	w = httptest.NewRecorder()
	h.List(w, asUser(httptest.NewRequest("GET", "/api/users", nil)))
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Create(w, asUser(httptest.NewRequest("POST", "/api/users", strings.NewReader(`{}`))))
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin create: expected 403, got %d", w.Code)
	}
}

func TestUsersCreateAndGet(t *testing.T) {
	h, _ := newUsersFixture(t)

	body := `{"email":"a@b.com","username":"alice","password":"Password123","is_superuser":true}`
	w := httptest.NewRecorder()
	h.Create(w, asAdmin(httptest.NewRequest("POST", "/api/users", strings.NewReader(body))))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Admin-created accounts may be granted superuser, unlike self-service
	// registration.
	if !created.IsSuperuser {
		t.Fatalf("expected superuser grant to be honored")
	}

	r := asAdmin(httptest.NewRequest("GET", "/api/users/"+created.ID, nil))
	r.SetPathValue("id", created.ID)
	w = httptest.NewRecorder()
	h.Get(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	r = asAdmin(httptest.NewRequest("GET", "/api/users/missing", nil))
	r.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	h.Get(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing user, got %d", w.Code)
	}
}

func TestUsersCreateDuplicateConflict(t *testing.T) {
	h, _ := newUsersFixture(t)

	body := `{"email":"a@b.com","username":"alice","password":"Password123"}`
	w := httptest.NewRecorder()
	h.Create(w, asAdmin(httptest.NewRequest("POST", "/api/users", strings.NewReader(body))))
	if w.Code != http.StatusCreated {
		t.Fatalf("first create returned %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Create(w, asAdmin(httptest.NewRequest("POST", "/api/users", strings.NewReader(body))))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", w.Code)
	}
}

func TestUsersPartialUpdate(t *testing.T) {
	h, users := newUsersFixture(t)

	w := httptest.NewRecorder()
	h.Create(w, asAdmin(httptest.NewRequest("POST", "/api/users", strings.NewReader(
		`{"email":"b@c.com","username":"bob","password":"Password123","full_name":"Bob B"}`))))
	var created UserResponse
	json.Unmarshal(w.Body.Bytes(), &created)

	r := asAdmin(httptest.NewRequest("PUT", "/api/users/"+created.ID, strings.NewReader(`{"is_active":true}`)))
	r.SetPathValue("id", created.ID)
	w = httptest.NewRecorder()
	h.Update(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, err := users.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.IsActive {
		t.Fatalf("is_active not applied")
	}
	if stored.FullName != "Bob B" || stored.Email != "b@c.com" {
		t.Fatalf("absent fields must stay untouched: %+v", stored)
	}
}

func TestUsersDelete(t *testing.T) {
	h, _ := newUsersFixture(t)

	w := httptest.NewRecorder()
	h.Create(w, asAdmin(httptest.NewRequest("POST", "/api/users", strings.NewReader(
		`{"email":"c@d.com","username":"carol","password":"Password123"}`))))
	var created UserResponse
	json.Unmarshal(w.Body.Bytes(), &created)

	r := asAdmin(httptest.NewRequest("DELETE", "/api/users/"+created.ID, nil))
	r.SetPathValue("id", created.ID)
	w = httptest.NewRecorder()
	h.Delete(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// Second delete of the same ID is a 404.
	w = httptest.NewRecorder()
	h.Delete(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for repeated delete, got %d", w.Code)
	}
}

func TestParseIntParam(t *testing.T) {
	cases := []struct {
		in       string
		fallback int
		want     int
	}{
		{"", 100, 100},
		{"25", 100, 25},
		{"0", 100, 0},
		{"-3", 100, 100},
		{"abc", 100, 100},
	}
	for _, c := range cases {
		if got := parseIntParam(c.in, c.fallback); got != c.want {
			t.Fatalf("parseIntParam(%q, %d) = %d, want %d", c.in, c.fallback, got, c.want)
		}
	}
}
