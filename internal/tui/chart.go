package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"studytrack/internal/palette"
	"studytrack/internal/stats"
)

// RenderTimeline plots total minutes per bucket.
func RenderTimeline(chart palette.Chart, width, height int) string {
	if len(chart.Timeline) == 0 {
		return HelpStyle.Render("No data available")
	}
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([]float64, len(chart.Timeline))
	for i, b := range chart.Timeline {
		data[i] = b.Total
	}
	first := chart.Timeline[0].Label
	last := chart.Timeline[len(chart.Timeline)-1].Label

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Caption(fmt.Sprintf("minutes per %s, %s to %s", unitName(chart.Window), first, last)),
	)
}

func unitName(w stats.Window) string {
	if w.Monthly {
		return "month"
	}
	return "day"
}

// RenderDistribution draws one colored bar per category, largest first.
func RenderDistribution(chart palette.Chart, width int) string {
	if len(chart.Distribution) == 0 {
		return HelpStyle.Render("No study time recorded in this period")
	}

	labelWidth := 0
	maxMinutes := 0.0
	for _, e := range chart.Distribution {
		if w := lipgloss.Width(chart.LabelOf(e.Category)); w > labelWidth {
			labelWidth = w
		}
		if e.Minutes > maxMinutes {
			maxMinutes = e.Minutes
		}
	}
	if maxMinutes == 0 {
		maxMinutes = 1
	}
	barWidth := width - labelWidth - 12
	if barWidth < 10 {
		barWidth = 10
	}

	var lines []string
	for _, e := range chart.Distribution {
		n := int(e.Minutes / maxMinutes * float64(barWidth))
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(chart.ColorOf(e.Category))).Render(strings.Repeat("█", n))
		label := lipgloss.NewStyle().Width(labelWidth).Render(chart.LabelOf(e.Category))
		lines = append(lines, fmt.Sprintf("%s │%s %.1f", label, bar, e.Minutes))
	}
	return strings.Join(lines, "\n")
}

// RenderLegend lists every category with its color swatch.
func RenderLegend(chart palette.Chart) string {
	parts := make([]string, 0, len(chart.Legend))
	for _, entry := range chart.Legend {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(entry.Color)).Render("■")
		parts = append(parts, swatch+" "+entry.Label)
	}
	return strings.Join(parts, "  ")
}

// RenderSummary is the one-line totals footer.
func RenderSummary(chart palette.Chart) string {
	s := chart.Summary
	line := fmt.Sprintf("total %.1f min · %d active · avg %.1f min",
		stats.ToMinutes(s.TotalSeconds), s.ActiveBuckets, s.AverageSecondsPerBucket/60)
	if s.BestBucket != "" {
		line += " · best " + s.BestBucket
	}
	return HelpStyle.Render(line)
}

// RenderStats stacks title, timeline, distribution, legend and summary.
func RenderStats(title string, chart palette.Chart, width int) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(title),
		"",
		RenderTimeline(chart, width-10, 10),
		"",
		RenderDistribution(chart, width),
		"",
		RenderLegend(chart),
		RenderSummary(chart),
	)
}
