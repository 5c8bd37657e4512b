package stats

import (
	"math"
	"sort"
	"time"

	"studytrack/internal/models"
)

// RankingLimit caps the radar view. Entries past the cap are dropped rather
// than folded into an "other" slice, to keep the chart readable.
const RankingLimit = 5

type Bucket struct {
	Key          string             `json:"key"`
	Label        string             `json:"label"`
	Start        time.Time          `json:"start"`
	Seconds      map[string]int     `json:"seconds"`
	Minutes      map[string]float64 `json:"minutes"`
	TotalSeconds int                `json:"total_seconds"`
	Total        float64            `json:"total"`
}

type Entry struct {
	Category string  `json:"category"`
	Seconds  int     `json:"seconds"`
	Minutes  float64 `json:"minutes"`
}

type Summary struct {
	TotalSeconds            int     `json:"total_seconds"`
	ActiveBuckets           int     `json:"active_buckets"`
	AverageSecondsPerBucket float64 `json:"average_seconds_per_bucket"`
	BestBucket              string  `json:"best_bucket,omitempty"`
}

type Result struct {
	Window       Window   `json:"window"`
	GroupBy      GroupBy  `json:"group_by"`
	Categories   []string `json:"categories"`
	Timeline     []Bucket `json:"timeline"`
	Distribution []Entry  `json:"distribution"`
	Ranking      []Entry  `json:"ranking"`
	Summary      Summary  `json:"summary"`
}

// Aggregate buckets sessions whose start falls inside the window of ref.
// The timeline always covers every unit of the window, zero-filled. It never
// drops recorded time: unknown study types count as other and sessions with
// no course count under models.UnknownCourseKey.
func Aggregate(sessions []models.StudySession, mode ViewMode, ref time.Time, groupBy GroupBy, opts Options) Result {
	w := ResolveWindow(mode, ref, opts)
	if groupBy != GroupByCourse {
		groupBy = GroupByStudyType
	}

	var categories []string
	seen := make(map[string]bool)
	if groupBy == GroupByStudyType {
		for _, t := range models.StudyTypes {
			categories = append(categories, string(t))
			seen[string(t)] = true
		}
	}

	units := w.Units()
	perBucket := make(map[string]map[string]int, len(units))
	for _, u := range units {
		perBucket[w.Key(u)] = make(map[string]int)
	}
	totals := make(map[string]int)

	for _, s := range sessions {
		if !w.Contains(s.StartTime) {
			continue
		}
		bucket, ok := perBucket[w.Key(s.StartTime)]
		if !ok {
			continue
		}

		category := categoryOf(s, groupBy)
		if !seen[category] {
			seen[category] = true
			categories = append(categories, category)
		}

		duration := s.DurationSeconds
		if duration < 0 {
			duration = 0
		}
		bucket[category] += duration
		totals[category] += duration
	}

	res := Result{
		Window:     w,
		GroupBy:    groupBy,
		Categories: categories,
		Timeline:   make([]Bucket, 0, len(units)),
	}

	best := -1
	for _, u := range units {
		key := w.Key(u)
		raw := perBucket[key]
		b := Bucket{
			Key:     key,
			Label:   w.Label(u),
			Start:   u,
			Seconds: make(map[string]int, len(categories)),
			Minutes: make(map[string]float64, len(categories)),
		}
		for _, c := range categories {
			b.Seconds[c] = raw[c]
			b.Minutes[c] = ToMinutes(raw[c])
			b.TotalSeconds += raw[c]
		}
		b.Total = ToMinutes(b.TotalSeconds)

		res.Summary.TotalSeconds += b.TotalSeconds
		if b.TotalSeconds > 0 {
			res.Summary.ActiveBuckets++
		}
		if b.TotalSeconds > best && b.TotalSeconds > 0 {
			best = b.TotalSeconds
			res.Summary.BestBucket = key
		}
		res.Timeline = append(res.Timeline, b)
	}
	if n := len(res.Timeline); n > 0 {
		res.Summary.AverageSecondsPerBucket = float64(res.Summary.TotalSeconds) / float64(n)
	}

	res.Distribution = distribution(categories, totals, groupBy == GroupByCourse)
	res.Ranking = ranking(res.Distribution, RankingLimit)
	return res
}

func categoryOf(s models.StudySession, groupBy GroupBy) string {
	if groupBy == GroupByCourse {
		return s.CourseKey()
	}
	return string(models.ParseStudyType(string(s.StudyType)))
}

func distribution(categories []string, totals map[string]int, sorted bool) []Entry {
	entries := make([]Entry, 0, len(categories))
	for _, c := range categories {
		if totals[c] <= 0 {
			continue
		}
		entries = append(entries, Entry{Category: c, Seconds: totals[c], Minutes: ToMinutes(totals[c])})
	}
	if sorted {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Seconds > entries[j].Seconds
		})
	}
	return entries
}

func ranking(dist []Entry, limit int) []Entry {
	ranked := make([]Entry, len(dist))
	copy(ranked, dist)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Seconds > ranked[j].Seconds
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ToMinutes converts seconds to minutes rounded to two decimals.
func ToMinutes(seconds int) float64 {
	return math.Round(float64(seconds)/60*100) / 100
}
