// Package stats turns flat study-session lists into chart timelines,
// category distributions and dashboard summaries.
package stats

import (
	"fmt"
	"strings"
	"time"
)

type ViewMode string

const (
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
	ViewYear  ViewMode = "year"
)

func ParseViewMode(raw string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ViewWeek, ViewMonth, ViewYear:
		return m, nil
	case "":
		return ViewWeek, nil
	default:
		return "", fmt.Errorf("view must be week, month, or year")
	}
}

type GroupBy string

const (
	GroupByStudyType GroupBy = "study_type"
	GroupByCourse    GroupBy = "course"
)

func ParseGroupBy(raw string) (GroupBy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "study_type", "type", "studytype":
		return GroupByStudyType, nil
	case "course":
		return GroupByCourse, nil
	default:
		return "", fmt.Errorf("group must be study_type or course")
	}
}

// Options control calendar arithmetic.
type Options struct {
	Location  *time.Location
	WeekStart time.Weekday
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

const (
	dayKeyLayout   = "2006-01-02"
	dayLabelLayout = "02/01"
	monthLayout    = "Jan"
)

// Window is a calendar range bucketed by day or by month. End is the last
// millisecond of the range, for display; membership is [Start, Next).
type Window struct {
	Mode    ViewMode  `json:"mode"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Monthly bool      `json:"monthly"`
}

// ResolveWindow returns the week, month or year containing ref.
func ResolveWindow(mode ViewMode, ref time.Time, opts Options) Window {
	loc := opts.location()
	ref = ref.In(loc)
	midnight := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)

	var start time.Time
	switch mode {
	case ViewMonth:
		start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
	case ViewYear:
		start = time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, loc)
	default:
		mode = ViewWeek
		offset := (int(midnight.Weekday()) - int(opts.WeekStart) + 7) % 7
		start = midnight.AddDate(0, 0, -offset)
	}

	w := Window{Mode: mode, Start: start, Monthly: mode == ViewYear}
	w.End = w.Next().Add(-time.Millisecond)
	return w
}

// Next is the first instant after the window. Range queries that bound
// inclusively should use it as the upper bound and filter with Contains.
func (w Window) Next() time.Time {
	switch w.Mode {
	case ViewMonth:
		return w.Start.AddDate(0, 1, 0)
	case ViewYear:
		return w.Start.AddDate(1, 0, 0)
	default:
		return w.Start.AddDate(0, 0, 7)
	}
}

// Contains reports whether t falls in [Start, Next).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.Next())
}

// Units lists every day (or month) of the window in order.
func (w Window) Units() []time.Time {
	var units []time.Time
	next := w.Next()
	for u := w.Start; u.Before(next); {
		units = append(units, u)
		if w.Monthly {
			u = u.AddDate(0, 1, 0)
		} else {
			u = u.AddDate(0, 0, 1)
		}
	}
	return units
}

// Key is the bucket identity of t: yyyy-MM-dd for days, MMM for months.
func (w Window) Key(t time.Time) string {
	t = t.In(w.Start.Location())
	if w.Monthly {
		return t.Format(monthLayout)
	}
	return t.Format(dayKeyLayout)
}

func (w Window) Label(t time.Time) string {
	t = t.In(w.Start.Location())
	if w.Monthly {
		return t.Format(monthLayout)
	}
	return t.Format(dayLabelLayout)
}
