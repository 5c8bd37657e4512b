package stats

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/models"
)

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func session(start time.Time, studyType string, seconds int) models.StudySession {
	course := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	return models.StudySession{
		ID:              uuid.New(),
		CourseID:        &course,
		StudyType:       models.StudyType(studyType),
		StartTime:       start,
		EndTime:         start.Add(time.Duration(seconds) * time.Second),
		DurationSeconds: seconds,
	}
}

func courseSession(course *uuid.UUID, start time.Time, seconds int) models.StudySession {
	s := session(start, "video", seconds)
	s.CourseID = course
	return s
}

func TestAggregateEmptyMonthIsZeroFilled(t *testing.T) {
	res := Aggregate(nil, ViewMonth, at(2026, time.March, 14, 12), GroupByStudyType, Options{})

	if len(res.Timeline) != 31 {
		t.Fatalf("expected 31 daily buckets for March, got %d", len(res.Timeline))
	}
	for i, b := range res.Timeline {
		if b.TotalSeconds != 0 || b.Total != 0 {
			t.Fatalf("bucket %d expected zero totals, got %+v", i, b)
		}
		if len(b.Seconds) != len(models.StudyTypes) {
			t.Fatalf("bucket %d expected all study types present, got %v", i, b.Seconds)
		}
	}
	if res.Timeline[0].Key != "2026-03-01" || res.Timeline[30].Key != "2026-03-31" {
		t.Fatalf("unexpected bucket range %s..%s", res.Timeline[0].Key, res.Timeline[30].Key)
	}
	if len(res.Distribution) != 0 || len(res.Ranking) != 0 {
		t.Fatalf("expected empty distribution and ranking")
	}
	if res.Summary.AverageSecondsPerBucket != 0 || math.IsNaN(res.Summary.AverageSecondsPerBucket) {
		t.Fatalf("expected zero average, got %v", res.Summary.AverageSecondsPerBucket)
	}
}

func TestAggregateWeekByStudyType(t *testing.T) {
	// 2026-03-01 is a Sunday, the first day of the week window.
	sessions := []models.StudySession{
		session(at(2026, time.March, 1, 9), "video", 1800),
		session(at(2026, time.March, 1, 14), "reading", 600),
		session(at(2026, time.March, 3, 20), "coding", 300),
	}

	res := Aggregate(sessions, ViewWeek, at(2026, time.March, 4, 8), GroupByStudyType, Options{})

	if len(res.Timeline) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(res.Timeline))
	}
	day1 := res.Timeline[0]
	if day1.Key != "2026-03-01" || day1.Label != "01/03" {
		t.Fatalf("unexpected first bucket %s (%s)", day1.Key, day1.Label)
	}
	if day1.Seconds["video"] != 1800 || day1.Seconds["reading"] != 600 || day1.TotalSeconds != 2400 {
		t.Fatalf("unexpected day1 bucket %+v", day1.Seconds)
	}
	if day1.Total != 40 || day1.Minutes["video"] != 30 {
		t.Fatalf("unexpected day1 minutes: total=%v video=%v", day1.Total, day1.Minutes["video"])
	}
	day3 := res.Timeline[2]
	if day3.Seconds["coding"] != 300 || day3.TotalSeconds != 300 {
		t.Fatalf("unexpected day3 bucket %+v", day3.Seconds)
	}
	for _, i := range []int{1, 3, 4, 5, 6} {
		if res.Timeline[i].TotalSeconds != 0 {
			t.Fatalf("expected bucket %d to be empty, got %d", i, res.Timeline[i].TotalSeconds)
		}
	}

	expected := []Entry{{"video", 1800, 30}, {"reading", 600, 10}, {"coding", 300, 5}}
	if len(res.Distribution) != len(expected) {
		t.Fatalf("expected %d distribution entries, got %v", len(expected), res.Distribution)
	}
	for i, e := range expected {
		if res.Distribution[i] != e {
			t.Errorf("distribution[%d]: expected %+v, got %+v", i, e, res.Distribution[i])
		}
	}
	if res.Summary.TotalSeconds != 2700 || res.Summary.ActiveBuckets != 2 || res.Summary.BestBucket != "2026-03-01" {
		t.Fatalf("unexpected summary %+v", res.Summary)
	}
}

func TestAggregateCountsLastSubMillisecond(t *testing.T) {
	w := ResolveWindow(ViewWeek, at(2026, time.March, 4, 8), Options{})
	sessions := []models.StudySession{
		session(w.End.Add(500*time.Microsecond), "coding", 600),
		session(w.Next(), "coding", 900),
		session(w.Start.Add(-time.Nanosecond), "coding", 900),
	}

	res := Aggregate(sessions, ViewWeek, at(2026, time.March, 4, 8), GroupByStudyType, Options{})

	if res.Summary.TotalSeconds != 600 {
		t.Fatalf("expected only the session before the next window, got %d", res.Summary.TotalSeconds)
	}
	if last := res.Timeline[len(res.Timeline)-1]; last.Key != "2026-03-07" || last.TotalSeconds != 600 {
		t.Fatalf("unexpected last bucket %s %d", last.Key, last.TotalSeconds)
	}
}

func TestAggregateStudyTypeDistributionKeepsDeclarationOrder(t *testing.T) {
	sessions := []models.StudySession{
		session(at(2026, time.March, 2, 9), "review", 5000),
		session(at(2026, time.March, 2, 10), "video", 10),
	}
	res := Aggregate(sessions, ViewWeek, at(2026, time.March, 2, 0), GroupByStudyType, Options{})

	if len(res.Distribution) != 2 || res.Distribution[0].Category != "video" || res.Distribution[1].Category != "review" {
		t.Fatalf("expected video before review, got %+v", res.Distribution)
	}
	if res.Ranking[0].Category != "review" {
		t.Fatalf("expected ranking sorted by total, got %+v", res.Ranking)
	}
}

func TestAggregateCoercesUnknownStudyType(t *testing.T) {
	sessions := []models.StudySession{
		session(at(2026, time.March, 2, 9), "bogus", 600),
		session(at(2026, time.March, 2, 10), "", 60),
	}
	res := Aggregate(sessions, ViewWeek, at(2026, time.March, 2, 0), GroupByStudyType, Options{})

	monday := res.Timeline[1]
	if monday.Seconds["other"] != 660 {
		t.Fatalf("expected 660 seconds under other, got %d", monday.Seconds["other"])
	}
	if _, ok := monday.Seconds["bogus"]; ok {
		t.Fatalf("unknown study type must not become its own category")
	}
	if len(res.Distribution) != 1 || res.Distribution[0].Seconds != 660 {
		t.Fatalf("unexpected distribution %+v", res.Distribution)
	}
}

func TestAggregateMinuteValuesMatchSeconds(t *testing.T) {
	sessions := []models.StudySession{
		session(at(2026, time.March, 2, 9), "video", 61),
		session(at(2026, time.March, 2, 10), "reading", 7),
		session(at(2026, time.March, 5, 10), "coding", 1001),
	}
	res := Aggregate(sessions, ViewWeek, at(2026, time.March, 2, 0), GroupByStudyType, Options{})

	for _, b := range res.Timeline {
		sum := 0
		for _, v := range b.Seconds {
			sum += v
		}
		if b.TotalSeconds != sum {
			t.Fatalf("bucket %s: total %d != sum %d", b.Key, b.TotalSeconds, sum)
		}
		if want := math.Round(float64(b.TotalSeconds)/60*100) / 100; b.Total != want {
			t.Fatalf("bucket %s: expected minutes %v, got %v", b.Key, want, b.Total)
		}
	}
	if got := res.Timeline[1].Total; got != 1.13 {
		t.Fatalf("expected 68 seconds to display as 1.13 minutes, got %v", got)
	}
}

func TestAggregateRankingKeepsTopFiveCourses(t *testing.T) {
	var sessions []models.StudySession
	var ids []uuid.UUID
	for i := 0; i < 8; i++ {
		id := uuid.New()
		ids = append(ids, id)
		sessions = append(sessions, courseSession(&ids[i], at(2026, time.March, 2, 9), (i+1)*100))
	}

	res := Aggregate(sessions, ViewWeek, at(2026, time.March, 2, 0), GroupByCourse, Options{})

	if len(res.Distribution) != 8 {
		t.Fatalf("expected all 8 courses in distribution, got %d", len(res.Distribution))
	}
	if len(res.Ranking) != RankingLimit {
		t.Fatalf("expected %d ranking entries, got %d", RankingLimit, len(res.Ranking))
	}
	for i, e := range res.Ranking {
		want := ids[7-i].String()
		if e.Category != want || e.Seconds != (8-i)*100 {
			t.Fatalf("ranking[%d]: expected %s with %d, got %+v", i, want, (8-i)*100, e)
		}
	}
}

func TestAggregateByCourseBucketsMissingCourseAsUnknown(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	sessions := []models.StudySession{
		courseSession(&a, at(2026, time.March, 2, 9), 300),
		courseSession(nil, at(2026, time.March, 3, 9), 900),
		courseSession(&b, at(2026, time.March, 4, 9), 300),
	}

	res := Aggregate(sessions, ViewWeek, at(2026, time.March, 2, 0), GroupByCourse, Options{})

	want := []string{models.UnknownCourseKey, a.String(), b.String()}
	if len(res.Distribution) != 3 {
		t.Fatalf("expected 3 entries, got %+v", res.Distribution)
	}
	for i, c := range want {
		if res.Distribution[i].Category != c {
			t.Fatalf("distribution[%d]: expected %s, got %s (ties must keep first-seen order)", i, c, res.Distribution[i].Category)
		}
	}
	for _, bucket := range res.Timeline {
		if len(bucket.Seconds) != 3 {
			t.Fatalf("bucket %s should carry every course, got %v", bucket.Key, bucket.Seconds)
		}
	}
	if res.Summary.TotalSeconds != 1500 {
		t.Fatalf("expected no time lost, got %d", res.Summary.TotalSeconds)
	}
}

func TestAggregateYearBucketsByMonth(t *testing.T) {
	sessions := []models.StudySession{
		session(at(2026, time.February, 10, 9), "video", 120),
		session(at(2025, time.December, 31, 23), "video", 999),
	}
	res := Aggregate(sessions, ViewYear, at(2026, time.June, 1, 0), GroupByStudyType, Options{})

	if len(res.Timeline) != 12 {
		t.Fatalf("expected 12 monthly buckets, got %d", len(res.Timeline))
	}
	if res.Timeline[0].Key != "Jan" || res.Timeline[11].Key != "Dec" {
		t.Fatalf("unexpected month keys %s..%s", res.Timeline[0].Key, res.Timeline[11].Key)
	}
	if res.Timeline[1].TotalSeconds != 120 {
		t.Fatalf("expected February to hold 120 seconds, got %d", res.Timeline[1].TotalSeconds)
	}
	if res.Summary.TotalSeconds != 120 {
		t.Fatalf("sessions outside the window must be ignored, got %d", res.Summary.TotalSeconds)
	}
}

func TestResolveWindow(t *testing.T) {
	ref := at(2026, time.March, 4, 15) // Wednesday
	tests := []struct {
		name  string
		mode  ViewMode
		opts  Options
		start time.Time
		units int
	}{
		{"week from sunday", ViewWeek, Options{}, at(2026, time.March, 1, 0), 7},
		{"week from monday", ViewWeek, Options{WeekStart: time.Monday}, at(2026, time.March, 2, 0), 7},
		{"month", ViewMonth, Options{}, at(2026, time.March, 1, 0), 31},
		{"year", ViewYear, Options{}, at(2026, time.January, 1, 0), 12},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := ResolveWindow(tc.mode, ref, tc.opts)
			if !w.Start.Equal(tc.start) {
				t.Errorf("Expected start %v, got %v", tc.start, w.Start)
			}
			if got := len(w.Units()); got != tc.units {
				t.Errorf("Expected %d units, got %d", tc.units, got)
			}
			if !w.Contains(w.End) || !w.Contains(w.Next().Add(-time.Nanosecond)) || w.Contains(w.Next()) {
				t.Errorf("Expected window to be half-open at %v", w.Next())
			}
			if !w.End.Equal(w.Next().Add(-time.Millisecond)) {
				t.Errorf("Expected end %v to be the last millisecond", w.End)
			}
		})
	}
}

func TestParseViewModeAndGroupBy(t *testing.T) {
	if m, err := ParseViewMode(""); err != nil || m != ViewWeek {
		t.Fatalf("expected week default, got %q %v", m, err)
	}
	if _, err := ParseViewMode("decade"); err == nil {
		t.Fatalf("expected error for unknown view")
	}
	if g, err := ParseGroupBy("course"); err != nil || g != GroupByCourse {
		t.Fatalf("expected course grouping, got %q %v", g, err)
	}
	if _, err := ParseGroupBy("platform"); err == nil {
		t.Fatalf("expected error for unknown grouping")
	}
}
