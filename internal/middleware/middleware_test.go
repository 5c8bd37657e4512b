package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"studytrack/internal/models"
)

func TestJWTMiddleware(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()
	valid, err := auth.GenerateAccessToken(userID, "a@b.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	expiredStr, _ := expired.SignedString(auth.Secret)

	other, _ := NewJWTAuth("other-secret").GenerateAccessToken(userID, "a@b.com")

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", "Bearer " + expiredStr, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"wrong secret", "Bearer " + other, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got models.Identity
			h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetIdentity(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			if tc.wantErr == "" {
				if got.UserID != userID || got.Email != "a@b.com" {
					t.Errorf("unexpected identity %+v", got)
				}
				return
			}
			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != tc.wantErr {
				t.Errorf("expected code %s, got %s", tc.wantErr, resp.Error.Code)
			}
		})
	}
}

func TestGetIdentityWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if !GetIdentity(req.Context()).IsZero() {
		t.Fatal("expected zero identity")
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rr.Header().Get("X-Request-ID") != seen {
		t.Fatalf("expected generated id echoed, got %q / %q", seen, rr.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if seen != "abc" || rr.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("expected caller id preserved, got %q", seen)
	}
}

func TestCORS(t *testing.T) {
	h := CORS("http://localhost:5173")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("missing allow-origin header")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected response for foreign origin: %d %q", rr.Code, rr.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}
