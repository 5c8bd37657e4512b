package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/apiclient"
	"studytrack/internal/config"
	"studytrack/internal/models"
	"studytrack/internal/timer"
)

type fakeAPI struct {
	mu       sync.Mutex
	userID   uuid.UUID
	courses  []models.Course
	sessions []models.CreateSessionRequest
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	respond := func(status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.URL.Path == "/api/v1/auth/login":
		respond(http.StatusOK, models.AuthTokens{AccessToken: "a", RefreshToken: "r"})
	case r.URL.Path == "/api/v1/auth/me":
		respond(http.StatusOK, models.User{ID: f.userID, Email: "grace@example.com"})
	case r.URL.Path == "/api/v1/courses" && r.Method == http.MethodGet:
		respond(http.StatusOK, map[string]interface{}{"courses": f.courses})
	case r.URL.Path == "/api/v1/sessions" && r.Method == http.MethodPost:
		var req models.CreateSessionRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.sessions = append(f.sessions, req)
		respond(http.StatusCreated, models.StudySession{ID: uuid.New()})
	default:
		http.NotFound(w, r)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTimerCommandsEndToEnd(t *testing.T) {
	courseID := uuid.New()
	api := &fakeAPI{
		userID:  uuid.New(),
		courses: []models.Course{{ID: courseID, Title: "Category Theory", Status: models.CourseStatusActive}},
	}
	srv := httptest.NewServer(api)
	defer srv.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := config.DefaultCLIConfig()
	cfg.APIURL = srv.URL
	cfg.DBPath = filepath.Join(dir, "studyctl.db")
	cfg.Notify = false
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatal(err)
	}
	base := []string{"--config", cfgPath}

	if _, err := run(t, append(base, "timer", "start", "--course", "category")...); !errors.Is(err, apiclient.ErrNotLoggedIn) {
		t.Fatalf("start before login: err = %v, want ErrNotLoggedIn", err)
	}

	out, err := run(t, append(base, "login", "--email", "grace@example.com", "--password", "hunter22")...)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "grace@example.com") {
		t.Errorf("login output = %q", out)
	}

	out, err = run(t, append(base, "timer", "start", "--course", "category", "--type", "reading")...)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.HasPrefix(out, "running") {
		t.Errorf("start output = %q", out)
	}

	// A second start is a no-op while the draft is active.
	out, _ = run(t, append(base, "timer", "start", "--course", "category")...)
	if !strings.Contains(out, "already active") {
		t.Errorf("second start output = %q", out)
	}

	out, err = run(t, append(base, "timer", "pause")...)
	if err != nil || !strings.HasPrefix(out, "paused") {
		t.Fatalf("pause: %q, %v", out, err)
	}

	out, err = run(t, append(base, "timer", "status")...)
	if err != nil || !strings.Contains(out, "Category Theory") {
		t.Fatalf("status: %q, %v", out, err)
	}

	out, err = run(t, append(base, "timer", "finish")...)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !strings.Contains(out, "session saved") {
		t.Errorf("finish output = %q", out)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.sessions) != 1 {
		t.Fatalf("sessions posted = %d, want 1", len(api.sessions))
	}
	if api.sessions[0].CourseID != courseID.String() || api.sessions[0].StudyType != "reading" {
		t.Errorf("posted session = %+v", api.sessions[0])
	}
}

func TestResolveCourse(t *testing.T) {
	algo := models.Course{ID: uuid.New(), Title: "Algorithms"}
	algebra := models.Course{ID: uuid.New(), Title: "Algebra"}
	algebraII := models.Course{ID: uuid.New(), Title: "Algebra II"}
	courses := []models.Course{algo, algebra, algebraII}

	tests := []struct {
		name    string
		arg     string
		want    uuid.UUID
		wantErr string
	}{
		{"by id", algo.ID.String(), algo.ID, ""},
		{"exact title wins over prefix", "algebra", algebra.ID, ""},
		{"unique prefix", "algo", algo.ID, ""},
		{"ambiguous prefix", "alg", uuid.Nil, "several"},
		{"no match", "physics", uuid.Nil, "no course"},
		{"unknown id", uuid.NewString(), uuid.Nil, "no course with id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveCourse(courses, tt.arg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.ID != tt.want {
				t.Errorf("got %s, want %s", got.Title, tt.want)
			}
		})
	}
}

func TestExplain(t *testing.T) {
	persist := &timer.PersistenceError{Op: "insert", Err: errors.New("502 bad gateway")}
	err := explain(persist)
	if !timer.IsPersistenceFailure(err) {
		t.Error("persistence failures must stay detectable")
	}
	if !strings.Contains(err.Error(), "still active") {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(explain(timer.ErrUnauthenticated), apiclient.ErrNotLoggedIn) {
		t.Error("unauthenticated should ask for login")
	}
}

func TestParseRefDate(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	got, err := parseRefDate("2026-02-28", loc)
	if err != nil {
		t.Fatal(err)
	}
	if got.Day() != 28 || got.Location() != loc {
		t.Errorf("got %v", got)
	}
	if _, err := parseRefDate("28/02/2026", loc); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestPaletteCommand(t *testing.T) {
	out, err := run(t, "palette", "--count", "12")
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(out, "\n"); lines != 12 {
		t.Errorf("printed %d colors, want 12", lines)
	}
	if _, err := run(t, "palette", "--count", "0"); err == nil {
		t.Error("zero count should fail")
	}
}
