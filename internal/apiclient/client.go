// Package apiclient talks to the studytrack HTTP API on behalf of studyctl.
// It also serves as the session store for the local timer engine.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/logger"
	"studytrack/internal/models"
	"studytrack/internal/stats"
)

const (
	accessTokenKey  = "auth:access_token"
	refreshTokenKey = "auth:refresh_token"
	identityKey     = "auth:identity"
)

// ErrNotLoggedIn means no credentials are stored locally.
var ErrNotLoggedIn = errors.New("not logged in, run `studyctl login` first")

// KV is where credentials are kept between runs.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Error is a decoded API error envelope.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Sprintf("%s (%d %s): %s", e.Message, e.Status, e.Code, strings.Join(parts, "; "))
}

type Client struct {
	baseURL string
	http    *http.Client
	kv      KV
}

func New(baseURL string, kv KV) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: 15 * time.Second},
		kv:      kv,
	}
}

// Login exchanges credentials for tokens and remembers who signed in.
func (c *Client) Login(ctx context.Context, email, password string) (models.Identity, error) {
	var tokens models.AuthTokens
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", "", req, &tokens); err != nil {
		return models.Identity{}, err
	}
	if err := c.saveTokens(tokens); err != nil {
		return models.Identity{}, err
	}

	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return models.Identity{}, err
	}
	identity := models.Identity{UserID: user.ID, Email: user.Email}
	raw, err := json.Marshal(identity)
	if err != nil {
		return models.Identity{}, err
	}
	if err := c.kv.Set(identityKey, string(raw)); err != nil {
		return models.Identity{}, fmt.Errorf("failed to store identity: %w", err)
	}
	return identity, nil
}

// Logout revokes the refresh token and forgets local credentials.
func (c *Client) Logout(ctx context.Context) error {
	refresh, ok, err := c.kv.Get(refreshTokenKey)
	if err != nil {
		return err
	}
	if ok {
		if err := c.do(ctx, http.MethodPost, "/auth/logout", models.RefreshRequest{RefreshToken: refresh}, nil); err != nil {
			logger.Warn("logout request failed", "error", err)
		}
	}
	for _, key := range []string{accessTokenKey, refreshTokenKey, identityKey} {
		if err := c.kv.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

// Identity returns the stored identity. The zero identity means nobody is
// signed in.
func (c *Client) Identity() (models.Identity, error) {
	raw, ok, err := c.kv.Get(identityKey)
	if err != nil || !ok {
		return models.Identity{}, err
	}
	var identity models.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		logger.Warn("discarding unreadable identity", "error", err)
		return models.Identity{}, nil
	}
	return identity, nil
}

// Insert creates a finished session. On success s carries the server-assigned id.
func (c *Client) Insert(ctx context.Context, s *models.StudySession) error {
	req := models.CreateSessionRequest{
		StudyType:       string(s.StudyType),
		StartTime:       s.StartTime.UTC().Format(time.RFC3339),
		EndTime:         s.EndTime.UTC().Format(time.RFC3339),
		DurationSeconds: s.DurationSeconds,
		Notes:           s.Notes,
	}
	if s.CourseID != nil {
		req.CourseID = s.CourseID.String()
	}

	var created models.StudySession
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &created); err != nil {
		return err
	}
	s.ID = created.ID
	s.CreatedAt = created.CreatedAt
	return nil
}

// UpdateCompletion rewrites end time and duration of an existing session.
// userID is implied by the token.
func (c *Client) UpdateCompletion(ctx context.Context, id, userID uuid.UUID, endTime time.Time, durationSeconds int) error {
	req := models.CompleteSessionRequest{
		EndTime:         endTime.UTC().Format(time.RFC3339),
		DurationSeconds: durationSeconds,
	}
	return c.do(ctx, http.MethodPatch, "/sessions/"+id.String(), req, nil)
}

func (c *Client) GetSession(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	var s models.StudySession
	if err := c.do(ctx, http.MethodGet, "/sessions/"+id.String(), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns sessions starting within [from, to].
func (c *Client) ListSessions(ctx context.Context, from, to time.Time) ([]models.StudySession, error) {
	q := url.Values{}
	q.Set("start_date", from.UTC().Format(time.RFC3339))
	q.Set("end_date", to.UTC().Format(time.RFC3339))

	var resp struct {
		Sessions []models.StudySession `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/sessions?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Sessions {
		resp.Sessions[i].Normalize()
	}
	return resp.Sessions, nil
}

func (c *Client) ListCourses(ctx context.Context) ([]models.Course, error) {
	var resp struct {
		Courses []models.Course `json:"courses"`
	}
	if err := c.do(ctx, http.MethodGet, "/courses", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Courses, nil
}

func (c *Client) CreateCourse(ctx context.Context, title, platform string) (*models.Course, error) {
	req := models.CourseRequest{Title: &title}
	if platform != "" {
		req.Platform = &platform
	}
	var course models.Course
	if err := c.do(ctx, http.MethodPost, "/courses", req, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) Summary(ctx context.Context) (*stats.DashboardSummary, error) {
	var summary stats.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/dashboard/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// do sends an authenticated request, refreshing the access token once if the
// server reports it expired.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, ok, err := c.kv.Get(accessTokenKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLoggedIn
	}

	err = c.send(ctx, method, path, token, body, out)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != "TOKEN_EXPIRED" {
		return err
	}

	logger.Debug("access token expired, refreshing")
	if token, err = c.refresh(ctx); err != nil {
		return err
	}
	return c.send(ctx, method, path, token, body, out)
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	refresh, ok, err := c.kv.Get(refreshTokenKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotLoggedIn
	}

	var tokens models.AuthTokens
	if err := c.send(ctx, http.MethodPost, "/auth/refresh", "", models.RefreshRequest{RefreshToken: refresh}, &tokens); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return "", ErrNotLoggedIn
		}
		return "", err
	}
	if err := c.saveTokens(tokens); err != nil {
		return "", err
	}
	return tokens.AccessToken, nil
}

func (c *Client) saveTokens(tokens models.AuthTokens) error {
	if err := c.kv.Set(accessTokenKey, tokens.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := c.kv.Set(refreshTokenKey, tokens.RefreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode >= 400 {
		var envelope models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Code == "" {
			return &Error{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: http.StatusText(resp.StatusCode)}
		}
		return &Error{
			Status:  resp.StatusCode,
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
			Fields:  envelope.Error.Fields,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
