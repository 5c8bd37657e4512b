package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/models"
	"studytrack/internal/timer"
)

type mapKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapKV() *mapKV { return &mapKV{data: map[string]string{}} }

func (m *mapKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapKV) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	writeJSON(w, status, models.ErrorResponse{Error: models.APIError{Code: code, Message: message, Fields: fields}})
}

func loggedIn(kv *mapKV) {
	kv.Set(accessTokenKey, "access-1")
	kv.Set(refreshTokenKey, "refresh-1")
}

func TestLoginStoresCredentials(t *testing.T) {
	userID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var req models.LoginRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "secret123" {
				apiError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password", nil)
				return
			}
			writeJSON(w, http.StatusOK, models.AuthTokens{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 900})
		case "/api/v1/auth/me":
			if r.Header.Get("Authorization") != "Bearer access-1" {
				apiError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", nil)
				return
			}
			writeJSON(w, http.StatusOK, models.User{ID: userID, Email: "ada@example.com"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	kv := newMapKV()
	c := New(srv.URL, kv)

	if _, err := c.Login(context.Background(), "ada@example.com", "wrong"); err == nil {
		t.Fatal("expected error for wrong password")
	}

	identity, err := c.Login(context.Background(), "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if identity.UserID != userID {
		t.Errorf("identity = %v, want %v", identity.UserID, userID)
	}

	stored, err := c.Identity()
	if err != nil || stored.UserID != userID {
		t.Errorf("Identity() = %v, %v", stored, err)
	}
	if tok, _, _ := kv.Get(refreshTokenKey); tok != "refresh-1" {
		t.Errorf("refresh token = %q", tok)
	}
}

func TestRequestsWithoutLogin(t *testing.T) {
	c := New("http://127.0.0.1:1", newMapKV())

	if _, err := c.ListCourses(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("err = %v, want ErrNotLoggedIn", err)
	}
	identity, err := c.Identity()
	if err != nil || !identity.IsZero() {
		t.Errorf("Identity() = %v, %v; want zero", identity, err)
	}
}

func TestInsertAndUpdateCompletion(t *testing.T) {
	sessionID := uuid.New()
	courseID := uuid.New()
	var created models.CreateSessionRequest
	var completed models.CompleteSessionRequest
	var patchedPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/sessions":
			json.NewDecoder(r.Body).Decode(&created)
			writeJSON(w, http.StatusCreated, models.StudySession{ID: sessionID, CreatedAt: time.Now()})
		case r.Method == http.MethodPatch:
			patchedPath = r.URL.Path
			json.NewDecoder(r.Body).Decode(&completed)
			writeJSON(w, http.StatusOK, models.StudySession{ID: sessionID})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	kv := newMapKV()
	loggedIn(kv)
	c := New(srv.URL, kv)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := &models.StudySession{
		CourseID:        &courseID,
		StudyType:       models.StudyTypeReading,
		StartTime:       start,
		EndTime:         start.Add(25 * time.Minute),
		DurationSeconds: 1500,
	}
	if err := c.Insert(context.Background(), s); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if s.ID != sessionID {
		t.Errorf("ID = %v, want %v", s.ID, sessionID)
	}
	if created.CourseID != courseID.String() || created.DurationSeconds != 1500 || created.StartTime != "2026-03-02T09:00:00Z" {
		t.Errorf("create request = %+v", created)
	}

	if err := c.UpdateCompletion(context.Background(), sessionID, uuid.New(), start.Add(time.Hour), 3600); err != nil {
		t.Fatalf("UpdateCompletion: %v", err)
	}
	if patchedPath != "/api/v1/sessions/"+sessionID.String() {
		t.Errorf("patched %q", patchedPath)
	}
	if completed.DurationSeconds != 3600 || completed.EndTime != "2026-03-02T10:00:00Z" {
		t.Errorf("complete request = %+v", completed)
	}
}

func TestExpiredTokenIsRefreshedOnce(t *testing.T) {
	var refreshes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/refresh":
			refreshes++
			writeJSON(w, http.StatusOK, models.AuthTokens{AccessToken: "access-2", RefreshToken: "refresh-2"})
		case "/api/v1/courses":
			if r.Header.Get("Authorization") != "Bearer access-2" {
				apiError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"courses": []models.Course{{Title: "Rust"}}})
		}
	}))
	defer srv.Close()

	kv := newMapKV()
	loggedIn(kv)
	c := New(srv.URL, kv)

	courses, err := c.ListCourses(context.Background())
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if len(courses) != 1 || courses[0].Title != "Rust" {
		t.Errorf("courses = %+v", courses)
	}
	if refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", refreshes)
	}
	if tok, _, _ := kv.Get(accessTokenKey); tok != "access-2" {
		t.Errorf("stored access token = %q", tok)
	}
}

func TestErrorEnvelopeDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", map[string]string{"end_time": "End time must not be before start time"})
	}))
	defer srv.Close()

	kv := newMapKV()
	loggedIn(kv)
	c := New(srv.URL, kv)

	_, err := c.CreateCourse(context.Background(), "", "")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Fields["end_time"] == "" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if !strings.Contains(apiErr.Error(), "end_time") {
		t.Errorf("message %q should name the field", apiErr.Error())
	}
}

func TestStoreAdapterReportsServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}))
	defer srv.Close()

	kv := newMapKV()
	loggedIn(kv)
	adapter := timer.NewStoreAdapter(New(srv.URL, kv))

	_, err := adapter.Persist(context.Background(), timer.Completion{
		UserID:       uuid.New(),
		CourseID:     uuid.New(),
		StudyType:    models.StudyTypeCoding,
		StartedAt:    time.Now().Add(-time.Minute),
		EndedAt:      time.Now(),
		TotalSeconds: 60,
	})
	if !timer.IsPersistenceFailure(err) {
		t.Fatalf("err = %v, want persistence failure", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Errorf("wrapped error = %v", err)
	}
}

func TestListSessionsSendsRange(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": []models.StudySession{
			{StudyType: "podcast", DurationSeconds: -3},
		}})
	}))
	defer srv.Close()

	kv := newMapKV()
	loggedIn(kv)
	c := New(srv.URL, kv)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sessions, err := c.ListSessions(context.Background(), from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if !strings.Contains(query, "start_date=2026-03-01T00%3A00%3A00Z") {
		t.Errorf("query = %q", query)
	}
	if sessions[0].StudyType != models.StudyTypeOther || sessions[0].DurationSeconds != 0 {
		t.Errorf("session not normalized: %+v", sessions[0])
	}
}
