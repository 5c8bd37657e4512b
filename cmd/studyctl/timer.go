package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"studytrack/internal/apiclient"
	"studytrack/internal/localstore"
	"studytrack/internal/logger"
	"studytrack/internal/models"
	"studytrack/internal/timer"
	"studytrack/internal/tui"
)

func newTimerCmd(opts *rootOptions) *cobra.Command {
	timerCmd := &cobra.Command{Use: "timer", Short: "Start, pause and finish the study timer"}

	var courseArg, studyType, notes, resumeID string
	start := &cobra.Command{
		Use:   "start --course <id|title>",
		Short: "Start timing a session",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			if engine.Phase() != timer.PhaseIdle {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "a session is already active")
				return printStatus(cmd.OutOrStdout(), engine.View(), nil)
			}

			draft, err := buildDraft(cmd.Context(), a.client, courseArg, studyType, notes, resumeID)
			if err != nil {
				return err
			}
			if err := engine.Start(draft); err != nil {
				return explain(err)
			}
			return printStatus(cmd.OutOrStdout(), engine.View(), nil)
		}),
	}
	start.Flags().StringVar(&courseArg, "course", "", "course id or title")
	start.Flags().StringVar(&studyType, "type", string(models.StudyTypeOther), "study type: video|reading|coding|review|other")
	start.Flags().StringVar(&notes, "notes", "", "session notes")
	start.Flags().StringVar(&resumeID, "resume", "", "continue the session with this id")

	timerCmd.AddCommand(start)
	timerCmd.AddCommand(transitionCmd(opts, "pause", "Pause the running session", (*timer.Engine).Pause))
	timerCmd.AddCommand(transitionCmd(opts, "resume", "Resume a paused session", (*timer.Engine).Resume))
	timerCmd.AddCommand(transitionCmd(opts, "reset", "Discard the active session without saving", (*timer.Engine).Reset))

	timerCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the active session",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), engine.View(), courseTitles(cmd.Context(), a.client))
		}),
	})

	timerCmd.AddCommand(&cobra.Command{
		Use:   "finish",
		Short: "Save the active session",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			result, err := engine.Finish(cmd.Context())
			if err != nil {
				return explain(err)
			}

			verb := "saved"
			if result.Updated {
				verb = "updated"
			}
			msg := fmt.Sprintf("session %s: %s", verb, timer.FormatDuration(int64(result.TotalSeconds)))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
			if a.cfg.Notify {
				if err := beeep.Notify("Study session "+verb, msg, ""); err != nil {
					logger.Debug("desktop notification failed", "error", err)
				}
			}
			return nil
		}),
	})

	timerCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Show a live timer",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}

			var changes <-chan struct{}
			watcher, err := localstore.Watch(a.db.Path())
			if err != nil {
				logger.Warn("cannot watch local store, changes from other terminals will not show", "error", err)
			} else {
				defer watcher.Close()
				changes = watcher.Changes()
			}

			model := tui.NewWatchModel(engine, changes, courseTitles(cmd.Context(), a.client))
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		}),
	})

	return timerCmd
}

func transitionCmd(opts *rootOptions, use, short string, apply func(*timer.Engine) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			if err := apply(engine); err != nil {
				return explain(err)
			}
			return printStatus(cmd.OutOrStdout(), engine.View(), nil)
		}),
	}
}

// buildDraft resolves the course and, for a resume, copies what the earlier
// session already recorded.
func buildDraft(ctx context.Context, client *apiclient.Client, courseArg, studyType, notes, resumeID string) (timer.Draft, error) {
	draft := timer.Draft{StudyType: models.ParseStudyType(studyType), Notes: notes}

	if resumeID != "" {
		id, err := uuid.Parse(resumeID)
		if err != nil {
			return draft, fmt.Errorf("invalid session id %q", resumeID)
		}
		prior, err := client.GetSession(ctx, id)
		if err != nil {
			return draft, err
		}
		started := prior.StartTime
		draft.ResumeFromSessionID = &id
		draft.ResumeFromPriorDurationSeconds = prior.DurationSeconds
		draft.ResumeStartedAt = &started
		draft.StudyType = prior.StudyType
		if prior.CourseID != nil {
			draft.CourseID = *prior.CourseID
		}
	}

	if courseArg != "" {
		courses, err := client.ListCourses(ctx)
		if err != nil {
			return draft, err
		}
		course, err := resolveCourse(courses, courseArg)
		if err != nil {
			return draft, err
		}
		draft.CourseID = course.ID
	}
	if draft.CourseID == uuid.Nil {
		return draft, errors.New("--course is required")
	}
	return draft, nil
}

// resolveCourse matches by id, then exact title, then unique title prefix,
// ignoring case.
func resolveCourse(courses []models.Course, arg string) (*models.Course, error) {
	if id, err := uuid.Parse(arg); err == nil {
		for i := range courses {
			if courses[i].ID == id {
				return &courses[i], nil
			}
		}
		return nil, fmt.Errorf("no course with id %s", id)
	}

	needle := strings.ToLower(strings.TrimSpace(arg))
	var prefixed []*models.Course
	for i := range courses {
		title := strings.ToLower(courses[i].Title)
		if title == needle {
			return &courses[i], nil
		}
		if strings.HasPrefix(title, needle) {
			prefixed = append(prefixed, &courses[i])
		}
	}
	switch len(prefixed) {
	case 0:
		return nil, fmt.Errorf("no course matches %q", arg)
	case 1:
		return prefixed[0], nil
	}
	names := make([]string, len(prefixed))
	for i, c := range prefixed {
		names[i] = c.Title
	}
	return nil, fmt.Errorf("%q matches several courses: %s", arg, strings.Join(names, ", "))
}

// courseTitles is best effort; without the API the view just shows ids.
func courseTitles(ctx context.Context, client *apiclient.Client) map[string]string {
	courses, err := client.ListCourses(ctx)
	if err != nil {
		logger.Debug("course titles unavailable", "error", err)
		return nil
	}
	titles := make(map[string]string, len(courses))
	for _, c := range courses {
		titles[c.ID.String()] = c.Title
	}
	return titles
}

func printStatus(w io.Writer, v timer.View, titles map[string]string) error {
	if v.Phase == timer.PhaseIdle || v.Draft == nil {
		_, err := fmt.Fprintln(w, "idle")
		return err
	}
	course := v.Draft.CourseID.String()
	if t, ok := titles[course]; ok {
		course = t
	}
	_, err := fmt.Fprintf(w, "%s %s  %s (%s)\n", v.Phase, timer.FormatClock(v.ElapsedSeconds), course, v.Draft.StudyType)
	return err
}

// explain turns engine errors into messages for the terminal.
func explain(err error) error {
	switch {
	case errors.Is(err, timer.ErrUnauthenticated):
		return apiclient.ErrNotLoggedIn
	case errors.Is(err, timer.ErrNotActive):
		return errors.New("no active session")
	case errors.Is(err, timer.ErrFinishInProgress):
		return errors.New("the session is already being saved")
	case errors.Is(err, timer.ErrSuperseded):
		return errors.New("the session was reset before it could be saved")
	case errors.Is(err, timer.ErrInvalidDraft):
		return errors.New("--course is required")
	case timer.IsPersistenceFailure(err):
		return fmt.Errorf("%w\nthe session is still active, run `studyctl timer finish` again", err)
	}
	return err
}
