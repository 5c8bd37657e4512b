package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studytrack/internal/events"
	"studytrack/internal/models"
)

type fakeUsers struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	profiles map[uuid.UUID]*models.Profile
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[uuid.UUID]*models.User{}, profiles: map[uuid.UUID]*models.Profile{}}
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = uuid.New()
	u.IsActive = true
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	if u, ok := f.users[userID]; ok {
		u.LastLoginAt = &now
	}
	return nil
}

func (f *fakeUsers) CreateProfile(ctx context.Context, userID uuid.UUID, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[userID] = &models.Profile{UserID: userID, DisplayName: displayName, DailyGoalMinutes: models.DefaultDailyGoalMinutes}
	return nil
}

func (f *fakeUsers) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.profiles[p.UserID] = &cp
	return nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func newMemTokens() *memTokens { return &memTokens{tokens: map[string]uuid.UUID{}} }

func (m *memTokens) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return nil
}

func (m *memTokens) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[token]
	if !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	return id, nil
}

func (m *memTokens) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions []models.StudySession
}

func (f *fakeSessions) add(s models.StudySession) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.sessions = append(f.sessions, s)
	return s.ID
}

func (f *fakeSessions) Insert(ctx context.Context, s *models.StudySession) error {
	s.ID = f.add(*s)
	return nil
}

func (f *fakeSessions) UpdateCompletion(ctx context.Context, id, userID uuid.UUID, endTime time.Time, durationSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].ID == id && f.sessions[i].UserID == userID {
			f.sessions[i].EndTime = endTime
			f.sessions[i].DurationSeconds = durationSeconds
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeSessions) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ID == id && s.UserID == userID {
			cp := s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSessions) List(ctx context.Context, userID uuid.UUID, filter models.SessionFilter) ([]models.StudySession, error) {
	return f.ListInRange(ctx, userID, time.Time{}, time.Now().AddDate(100, 0, 0))
}

func (f *fakeSessions) ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StudySession
	for _, s := range f.sessions {
		if s.UserID == userID && !s.StartTime.Before(from) && !s.StartTime.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessions) Delete(ctx context.Context, id, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.sessions {
		if s.ID == id && s.UserID == userID {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeCourses struct {
	courses []models.Course
}

func (f *fakeCourses) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Course, error) {
	for _, c := range f.courses {
		if c.ID == id && c.UserID == userID {
			cp := c
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCourses) List(ctx context.Context, userID uuid.UUID) ([]models.Course, error) {
	var out []models.Course
	for _, c := range f.courses {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourses) Create(ctx context.Context, c *models.Course) error {
	c.ID = uuid.New()
	f.courses = append(f.courses, *c)
	return nil
}

func (f *fakeCourses) Update(ctx context.Context, c *models.Course) error {
	for i := range f.courses {
		if f.courses[i].ID == c.ID && f.courses[i].UserID == c.UserID {
			f.courses[i] = *c
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeCourses) Delete(ctx context.Context, id, userID uuid.UUID) error {
	for i, c := range f.courses {
		if c.ID == id && c.UserID == userID {
			f.courses = append(f.courses[:i], f.courses[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeCourses) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, c := range f.courses {
		if c.UserID == userID && c.Status == models.CourseStatusActive {
			n++
		}
	}
	return n, nil
}

type noNotes struct{}

func (noNotes) ListByCourse(ctx context.Context, courseID, userID uuid.UUID) ([]models.CourseNote, error) {
	return nil, nil
}
func (noNotes) Create(ctx context.Context, n *models.CourseNote) error { return nil }
func (noNotes) Update(ctx context.Context, n *models.CourseNote) error { return nil }
func (noNotes) Delete(ctx context.Context, id, userID uuid.UUID) error { return nil }

type fakeDaily struct {
	days []models.DailyStat
}

func (f *fakeDaily) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.DailyStat, error) {
	return f.days, nil
}

type memCache struct {
	mu          sync.Mutex
	versions    map[uuid.UUID]int
	entries     map[string][]byte
	gets        int
	hits        int
	invalidated int
}

func newMemCache() *memCache {
	return &memCache{versions: map[uuid.UUID]int{}, entries: map[string][]byte{}}
}

func (c *memCache) Version(ctx context.Context, userID uuid.UUID) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strconv.Itoa(c.versions[userID]), nil
}

func (c *memCache) Get(ctx context.Context, userID uuid.UUID, version, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	data, ok := c.entries[chartKey(userID, version, key)]
	if ok {
		c.hits++
	}
	return data, ok, nil
}

func (c *memCache) Set(ctx context.Context, userID uuid.UUID, version, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[chartKey(userID, version, key)] = data
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.versions[userID]++
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) kinds() []events.Kind {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Kind, len(b.events))
	for i, e := range b.events {
		out[i] = e.Kind
	}
	return out
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStorage() *memStorage { return &memStorage{data: map[string]string{}} }

func (m *memStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
