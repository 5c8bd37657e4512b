package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/events"
	"studytrack/internal/models"
)

const (
	JobDailyRollup = "daily-rollup"
	// JobRebuild recomputes the trailing RebuildDays of one user, for changes
	// whose affected days are unknown (course deletion).
	JobRebuild  = "rollup-rebuild"
	RebuildDays = 30
)

type sessionTotals interface {
	SumBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
}

type dailyStatsWriter interface {
	Upsert(ctx context.Context, userID uuid.UUID, day time.Time, totalSeconds int) error
}

// Rollup recomputes daily_stats rows from stored sessions.
type Rollup struct {
	sessions sessionTotals
	daily    dailyStatsWriter
	loc      *time.Location
	now      func() time.Time
}

func NewRollup(sessions sessionTotals, daily dailyStatsWriter, loc *time.Location) *Rollup {
	if loc == nil {
		loc = time.UTC
	}
	return &Rollup{sessions: sessions, daily: daily, loc: loc, now: time.Now}
}

func (r *Rollup) Process(ctx context.Context, job *models.Job) error {
	switch job.Type {
	case JobDailyRollup:
		day, err := time.ParseInLocation("2006-01-02", job.Day, r.loc)
		if err != nil {
			return fmt.Errorf("invalid rollup day %q: %w", job.Day, err)
		}
		return r.rollDay(ctx, job.UserID, day)
	case JobRebuild:
		today := r.now().In(r.loc)
		today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, r.loc)
		for i := 0; i < RebuildDays; i++ {
			if err := r.rollDay(ctx, job.UserID, today.AddDate(0, 0, -i)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown job type: %s", job.Type)
}

func (r *Rollup) rollDay(ctx context.Context, userID uuid.UUID, day time.Time) error {
	total, err := r.sessions.SumBetween(ctx, userID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to sum %s: %w", day.Format("2006-01-02"), err)
	}
	if err := r.daily.Upsert(ctx, userID, day, total); err != nil {
		return fmt.Errorf("failed to store %s: %w", day.Format("2006-01-02"), err)
	}
	return nil
}

// JobFor returns the rollup job an event calls for, if any.
func JobFor(e events.Event, loc *time.Location) (*models.Job, bool) {
	if !e.AffectsSessions() || e.UserID == uuid.Nil {
		return nil, false
	}
	if loc == nil {
		loc = time.UTC
	}
	job := &models.Job{
		ID:        uuid.New(),
		UserID:    e.UserID,
		Type:      JobRebuild,
		CreatedAt: time.Now(),
	}
	if !e.Day.IsZero() {
		job.Type = JobDailyRollup
		job.Day = e.Day.In(loc).Format("2006-01-02")
	}
	return job, true
}
