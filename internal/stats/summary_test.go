package stats

import (
	"testing"
	"time"

	"studytrack/internal/models"
)

func day(y int, m time.Month, d, seconds int) models.DailyStat {
	return models.DailyStat{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), TotalSeconds: seconds}
}

func TestStreak(t *testing.T) {
	today := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	goal := 60 // minutes

	tests := []struct {
		name     string
		days     []models.DailyStat
		expected int
	}{
		{"no rollups", nil, 0},
		{"today and two before", []models.DailyStat{day(2026, 3, 10, 3600), day(2026, 3, 9, 4000), day(2026, 3, 8, 3600)}, 3},
		{"starts yesterday", []models.DailyStat{day(2026, 3, 9, 3600), day(2026, 3, 8, 3600)}, 2},
		{"stops at miss", []models.DailyStat{day(2026, 3, 10, 3600), day(2026, 3, 9, 100), day(2026, 3, 8, 3600)}, 1},
		{"stops at gap", []models.DailyStat{day(2026, 3, 10, 3600), day(2026, 3, 7, 3600)}, 1},
		{"stale run", []models.DailyStat{day(2026, 3, 5, 3600)}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Streak(tc.days, goal, today); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	if got := ProgressPercent(3600, 120); got != 50 {
		t.Errorf("Expected 50, got %v", got)
	}
	if got := ProgressPercent(99999, 120); got != 100 {
		t.Errorf("Expected cap at 100, got %v", got)
	}
	if got := ProgressPercent(3600, 0); got != 50 {
		t.Errorf("Expected default goal of 120 minutes, got %v", got)
	}
}

func TestSumSeconds(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	sessions := []models.StudySession{
		session(now.Add(-time.Hour), "video", 600),
		session(now.Add(-30*time.Hour), "video", 900),
	}
	if got := SumSeconds(sessions, DayStart(now, time.UTC)); got != 600 {
		t.Errorf("Expected 600, got %d", got)
	}
	if got := SumSeconds(sessions, TrailingWeekStart(now, time.UTC)); got != 1500 {
		t.Errorf("Expected 1500, got %d", got)
	}
}
