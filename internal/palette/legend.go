package palette

import (
	"sort"

	"studytrack/internal/models"
	"studytrack/internal/stats"
)

// UnknownCourseLabel names the bucket of sessions without a known course.
const UnknownCourseLabel = "Unknown course"

// CourseRef identifies a course for labelling. Order matters: a course's color
// comes from its position in the caller's course list, so it is stable across
// chart views.
type CourseRef struct {
	ID    string
	Title string
}

type LegendEntry struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Title    string `json:"title"`
	Color    string `json:"color"`
}

// Chart is an aggregation result ready for display.
type Chart struct {
	stats.Result
	Legend []LegendEntry `json:"legend"`
}

// Decorate attaches labels and colors to every category of res.
func Decorate(res stats.Result, courses []CourseRef, maxLen int) Chart {
	ordered := make([]string, 0, len(courses))
	titles := make(map[string]string, len(courses))
	for _, c := range courses {
		ordered = append(ordered, c.ID)
		titles[c.ID] = c.Title
	}

	legend := make([]LegendEntry, 0, len(res.Categories))
	for _, category := range res.Categories {
		entry := LegendEntry{Category: category}
		if res.GroupBy == stats.GroupByCourse {
			title, ok := titles[category]
			if !ok || category == models.UnknownCourseKey {
				title = UnknownCourseLabel
			}
			entry.Title = title
			entry.Color = DeriveColor(category, ordered)
		} else {
			entry.Title = string(models.ParseStudyType(category))
			entry.Color = StudyTypeColor(models.StudyType(category))
		}
		entry.Label = TruncateLabel(entry.Title, maxLen)
		legend = append(legend, entry)
	}
	return Chart{Result: res, Legend: legend}
}

// ColorOf returns the legend color for category, or Fallback.
func (c Chart) ColorOf(category string) string {
	for _, e := range c.Legend {
		if e.Category == category {
			return e.Color
		}
	}
	return Fallback
}

// LabelOf returns the display label for category.
func (c Chart) LabelOf(category string) string {
	for _, e := range c.Legend {
		if e.Category == category {
			return e.Label
		}
	}
	return category
}

// CourseRefs lists courses oldest first, the order that fixes their chart
// colors, so adding a course never recolors existing ones.
func CourseRefs(courses []models.Course) []CourseRef {
	ordered := make([]models.Course, len(courses))
	copy(ordered, courses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	refs := make([]CourseRef, 0, len(ordered))
	for _, c := range ordered {
		refs = append(refs, CourseRef{ID: c.ID.String(), Title: c.Title})
	}
	return refs
}
