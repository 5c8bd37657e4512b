package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"studytrack/internal/palette"
	"studytrack/internal/stats"
	"studytrack/internal/timer"
	"studytrack/internal/tui"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var view, date, group string
	var width int
	var summary bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Chart study time for a week, month or year",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			mode, err := stats.ParseViewMode(view)
			if err != nil {
				return err
			}
			groupBy, err := stats.ParseGroupBy(group)
			if err != nil {
				return err
			}
			loc := a.cfg.Location()
			ref, err := parseRefDate(date, loc)
			if err != nil {
				return err
			}

			statOpts := stats.Options{Location: loc, WeekStart: a.cfg.WeekStart()}
			window := stats.ResolveWindow(mode, ref, statOpts)
			sessions, err := a.client.ListSessions(cmd.Context(), window.Start, window.Next())
			if err != nil {
				return err
			}
			courses, err := a.client.ListCourses(cmd.Context())
			if err != nil {
				return err
			}

			res := stats.Aggregate(sessions, mode, ref, groupBy, statOpts)
			chart := palette.Decorate(res, palette.CourseRefs(courses), a.cfg.LabelMaxLength)
			title := fmt.Sprintf("%s of %s by %s", mode, window.Start.Format("2 Jan 2006"), strings.ReplaceAll(string(groupBy), "_", " "))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderStats(title, chart, width))

			if summary {
				s, err := a.client.Summary(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\ntoday %s of %d min goal (%.0f%%) · last 7 days %s · streak %d days · %d active courses\n",
					timer.FormatDuration(int64(s.TodaySeconds)), s.DailyGoalMinutes, s.ProgressPercent,
					timer.FormatDuration(int64(s.WeekSeconds)), s.Streak, s.ActiveCourses)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&view, "view", "week", "week|month|year")
	cmd.Flags().StringVar(&date, "date", "", "any day inside the period, yyyy-mm-dd (default today)")
	cmd.Flags().StringVar(&group, "group", "study_type", "study_type|course")
	cmd.Flags().IntVar(&width, "width", 72, "chart width in columns")
	cmd.Flags().BoolVar(&summary, "summary", false, "also print today's progress and streak")
	return cmd
}

func parseRefDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want yyyy-mm-dd", raw)
	}
	return t, nil
}

func newCoursesCmd(opts *rootOptions) *cobra.Command {
	courses := &cobra.Command{
		Use:   "courses",
		Short: "List or add courses",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			list, err := a.client.ListCourses(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no courses")
				return nil
			}
			refs := palette.CourseRefs(list)
			ordered := make([]string, len(refs))
			for i, r := range refs {
				ordered[i] = r.ID
			}
			colors := palette.Assign(ordered)
			for _, c := range list {
				swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[c.ID.String()])).Render("■")
				platform := ""
				if c.Platform != nil {
					platform = " · " + *c.Platform
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s [%s]%s\n", swatch, c.ID, c.Title, c.Status, platform)
			}
			return nil
		}),
	}

	var platform string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a course",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			course, err := a.client.CreateCourse(cmd.Context(), args[0], platform)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", course.Title, course.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&platform, "platform", "", "where the course is hosted")
	courses.AddCommand(add)
	return courses
}

func newPaletteCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Preview the colors assigned to the first N courses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive")
			}
			for i, hex := range palette.Generate(palette.Base, count) {
				swatch := lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    ")
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%3d %s %s\n", i+1, swatch, hex)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", len(palette.Base), "number of colors")
	return cmd
}
