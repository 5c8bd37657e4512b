package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack/internal/models"
)

type StudySessionRepo struct {
	pool *pgxpool.Pool
}

func NewStudySessionRepo(pool *pgxpool.Pool) *StudySessionRepo {
	return &StudySessionRepo{pool: pool}
}

const sessionColumns = `s.id, s.user_id, s.course_id, s.study_type, s.start_time, s.end_time,
	s.duration_seconds, s.notes, s.created_at, c.title, c.platform`

func (r *StudySessionRepo) Insert(ctx context.Context, s *models.StudySession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	query := `
		INSERT INTO study_sessions (id, user_id, course_id, study_type, start_time, end_time, duration_seconds, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.CourseID, s.StudyType, s.StartTime, s.EndTime, s.DurationSeconds, s.Notes,
	).Scan(&s.CreatedAt)
}

// UpdateCompletion rewrites only end_time and duration_seconds of an owned session.
func (r *StudySessionRepo) UpdateCompletion(ctx context.Context, id, userID uuid.UUID, endTime time.Time, durationSeconds int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET end_time = $1, duration_seconds = $2
		WHERE id = $3 AND user_id = $4
	`, endTime, durationSeconds, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *StudySessionRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudySession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM study_sessions s
		LEFT JOIN courses c ON c.id = s.course_id
		WHERE s.id = $1 AND s.user_id = $2`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns the user's sessions matching filter, newest first.
func (r *StudySessionRepo) List(ctx context.Context, userID uuid.UUID, filter models.SessionFilter) ([]models.StudySession, error) {
	conds := []string{"s.user_id = $1"}
	args := []interface{}{userID}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.CourseID != nil {
		add("s.course_id = $%d", *filter.CourseID)
	}
	if filter.StudyType != nil {
		add("s.study_type = $%d", string(*filter.StudyType))
	}
	if filter.StartDate != nil {
		add("s.start_time >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("s.start_time <= $%d", *filter.EndDate)
	}

	query := `SELECT ` + sessionColumns + `
		FROM study_sessions s
		LEFT JOIN courses c ON c.id = s.course_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY s.start_time DESC`

	return r.query(ctx, query, args...)
}

// ListInRange returns sessions with start_time in [from, to], oldest first.
func (r *StudySessionRepo) ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.StudySession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM study_sessions s
		LEFT JOIN courses c ON c.id = s.course_id
		WHERE s.user_id = $1 AND s.start_time >= $2 AND s.start_time <= $3
		ORDER BY s.start_time ASC`

	return r.query(ctx, query, userID, from, to)
}

// SumBetween totals duration_seconds for sessions started in [from, to).
func (r *StudySessionRepo) SumBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(GREATEST(duration_seconds, 0)), 0)::INT
		FROM study_sessions
		WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
	`, userID, from, to).Scan(&total)
	return total, err
}

func (r *StudySessionRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM study_sessions WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *StudySessionRepo) query(ctx context.Context, query string, args ...interface{}) ([]models.StudySession, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.StudySession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// scanSession reads one row and coerces it to a well-formed session.
func scanSession(row pgx.Row) (*models.StudySession, error) {
	s := &models.StudySession{}
	var studyType string
	err := row.Scan(
		&s.ID, &s.UserID, &s.CourseID, &studyType, &s.StartTime, &s.EndTime,
		&s.DurationSeconds, &s.Notes, &s.CreatedAt, &s.CourseTitle, &s.CoursePlatform,
	)
	if err != nil {
		return nil, err
	}
	s.StudyType = models.StudyType(studyType)
	s.Normalize()
	return s, nil
}
