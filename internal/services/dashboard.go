package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"studytrack/internal/events"
	"studytrack/internal/models"
	"studytrack/internal/palette"
	"studytrack/internal/stats"
)

// streakWindowDays is how many daily rollups the streak looks at.
const streakWindowDays = 30

type dashboardSessions interface {
	ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.StudySession, error)
}

type dashboardCourses interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Course, error)
	CountActive(ctx context.Context, userID uuid.UUID) (int, error)
}

type dailyStatsReader interface {
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.DailyStat, error)
}

// ChartCache stores rendered chart payloads per user. Entries live under a
// version that Invalidate moves on; callers read the version once and use it
// for both Get and Set, so a chart computed before an invalidation is never
// stored where later reads look.
type ChartCache interface {
	Version(ctx context.Context, userID uuid.UUID) (string, error)
	Get(ctx context.Context, userID uuid.UUID, version, key string) ([]byte, bool, error)
	Set(ctx context.Context, userID uuid.UUID, version, key string, data []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// RedisChartCache namespaces entries by a per-user version counter;
// invalidating bumps the counter so stale entries are never read again and
// simply expire.
type RedisChartCache struct {
	client *redis.Client
}

func NewRedisChartCache(client *redis.Client) *RedisChartCache {
	return &RedisChartCache{client: client}
}

func (c *RedisChartCache) Version(ctx context.Context, userID uuid.UUID) (string, error) {
	v, err := c.client.Get(ctx, "charts:ver:"+userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func chartKey(userID uuid.UUID, version, key string) string {
	return fmt.Sprintf("charts:%s:%s:%s", userID, version, key)
}

func (c *RedisChartCache) Get(ctx context.Context, userID uuid.UUID, version, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, chartKey(userID, version, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisChartCache) Set(ctx context.Context, userID uuid.UUID, version, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, chartKey(userID, version, key), data, ttl).Err()
}

func (c *RedisChartCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Incr(ctx, "charts:ver:"+userID.String()).Err()
}

type DashboardOptions struct {
	Stats          stats.Options
	LabelMaxLength int
	CacheTTL       time.Duration
}

type DashboardService struct {
	sessions dashboardSessions
	courses  dashboardCourses
	profiles profileStore
	daily    dailyStatsReader
	cache    ChartCache
	opts     DashboardOptions
	now      func() time.Time
}

func NewDashboardService(sessions dashboardSessions, courses dashboardCourses, profiles profileStore, daily dailyStatsReader, cache ChartCache, opts DashboardOptions) *DashboardService {
	if opts.Stats.Location == nil {
		opts.Stats.Location = time.UTC
	}
	return &DashboardService{
		sessions: sessions,
		courses:  courses,
		profiles: profiles,
		daily:    daily,
		cache:    cache,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *DashboardService) Summary(ctx context.Context, identity models.Identity) (*stats.DashboardSummary, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}

	loc := s.opts.Stats.Location
	now := s.now().In(loc)
	todayStart := stats.DayStart(now, loc)
	weekStart := stats.TrailingWeekStart(now, loc)

	sessions, err := s.sessions.ListInRange(ctx, identity.UserID, weekStart, todayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	goal := models.DefaultDailyGoalMinutes
	profile, err := s.profiles.GetProfile(ctx, identity.UserID)
	switch {
	case err == nil:
		goal = profile.EffectiveDailyGoal()
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	days, err := s.daily.Recent(ctx, identity.UserID, streakWindowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}

	active, err := s.courses.CountActive(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	today := stats.SumSeconds(sessions, todayStart)
	return &stats.DashboardSummary{
		TodaySeconds:     today,
		WeekSeconds:      stats.SumSeconds(sessions, weekStart),
		Streak:           stats.Streak(days, goal, now),
		ActiveCourses:    active,
		DailyGoalMinutes: goal,
		ProgressPercent:  stats.ProgressPercent(today, goal),
	}, nil
}

// Charts aggregates the window of view containing date (yyyy-mm-dd, default
// today) and decorates it for display. Results are cached briefly.
func (s *DashboardService) Charts(ctx context.Context, identity models.Identity, view, date, group string) (*palette.Chart, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}

	fields := make(map[string]string)
	mode, err := stats.ParseViewMode(view)
	if err != nil {
		fields["view"] = "View must be week, month or year"
	}
	groupBy, err := stats.ParseGroupBy(group)
	if err != nil {
		fields["group"] = "Group must be study_type or course"
	}
	loc := s.opts.Stats.Location
	ref := s.now().In(loc)
	if date != "" {
		ref, err = time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			fields["date"] = "Date must be yyyy-mm-dd"
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	window := stats.ResolveWindow(mode, ref, s.opts.Stats)
	cacheKey := string(mode) + ":" + window.Start.Format("2006-01-02") + ":" + string(groupBy) + ":" + strconv.Itoa(s.opts.LabelMaxLength)
	version, cached := "", false
	if s.cache != nil {
		if version, err = s.cache.Version(ctx, identity.UserID); err != nil {
			log.Printf("dashboard: chart cache version read failed: %v", err)
		} else {
			cached = true
		}
	}
	if cached {
		if data, ok, err := s.cache.Get(ctx, identity.UserID, version, cacheKey); err != nil {
			log.Printf("dashboard: chart cache read failed: %v", err)
		} else if ok {
			var chart palette.Chart
			if err := json.Unmarshal(data, &chart); err == nil {
				return &chart, nil
			}
		}
	}

	sessions, err := s.sessions.ListInRange(ctx, identity.UserID, window.Start, window.Next())
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	var refs []palette.CourseRef
	if groupBy == stats.GroupByCourse {
		courses, err := s.courses.List(ctx, identity.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load courses: %w", err)
		}
		refs = palette.CourseRefs(courses)
	}

	result := stats.Aggregate(sessions, mode, ref, groupBy, s.opts.Stats)
	chart := palette.Decorate(result, refs, s.opts.LabelMaxLength)

	if cached {
		if data, err := json.Marshal(chart); err == nil {
			if err := s.cache.Set(ctx, identity.UserID, version, cacheKey, data, s.opts.CacheTTL); err != nil {
				log.Printf("dashboard: chart cache write failed: %v", err)
			}
		}
	}
	return &chart, nil
}

// HandleEvent drops cached charts whenever the user's sessions or courses change.
func (s *DashboardService) HandleEvent(e events.Event) error {
	if s.cache == nil || !e.InvalidatesCharts() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.cache.Invalidate(ctx, e.UserID)
}
