package stats

import (
	"math"
	"time"

	"studytrack/internal/models"
)

// DashboardSummary backs the headline cards of the dashboard.
type DashboardSummary struct {
	TodaySeconds     int     `json:"today_seconds"`
	WeekSeconds      int     `json:"week_seconds"`
	Streak           int     `json:"streak"`
	ActiveCourses    int     `json:"active_courses"`
	DailyGoalMinutes int     `json:"daily_goal"`
	ProgressPercent  float64 `json:"progress_percent"`
}

// DayStart is local midnight of t.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// TrailingWeekStart is midnight seven days before t.
func TrailingWeekStart(t time.Time, loc *time.Location) time.Time {
	return DayStart(t, loc).AddDate(0, 0, -7)
}

// SumSeconds adds durations of sessions starting at or after since.
func SumSeconds(sessions []models.StudySession, since time.Time) int {
	total := 0
	for _, s := range sessions {
		if s.StartTime.Before(since) || s.DurationSeconds <= 0 {
			continue
		}
		total += s.DurationSeconds
	}
	return total
}

// Streak counts consecutive days meeting the goal. days must be ordered newest
// first; the run has to start today or yesterday and stops at the first gap or
// the first day below goal.
func Streak(days []models.DailyStat, goalMinutes int, today time.Time) int {
	if goalMinutes <= 0 {
		goalMinutes = models.DefaultDailyGoalMinutes
	}
	goalSeconds := goalMinutes * 60

	expected := civilDate(today)
	streak := 0
	for i, d := range days {
		day := civilDate(d.Date)
		if i == 0 && day.Equal(expected.AddDate(0, 0, -1)) && !day.Equal(expected) {
			// today has no rollup yet
			expected = day
		}
		if !day.Equal(expected) || d.TotalSeconds < goalSeconds {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ProgressPercent is today's share of the daily goal, capped at 100.
func ProgressPercent(todaySeconds, goalMinutes int) float64 {
	if goalMinutes <= 0 {
		goalMinutes = models.DefaultDailyGoalMinutes
	}
	pct := float64(todaySeconds) / 60 / float64(goalMinutes) * 100
	return math.Min(math.Round(pct*100)/100, 100)
}
