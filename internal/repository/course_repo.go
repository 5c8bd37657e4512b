package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack/internal/models"
)

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

func (r *CourseRepo) Create(ctx context.Context, c *models.Course) error {
	c.ID = uuid.New()
	if c.Status == "" {
		c.Status = models.CourseStatusActive
	}
	query := `INSERT INTO courses (id, user_id, title, platform, url, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.UserID, c.Title, c.Platform, c.URL, c.Status,
	).Scan(&c.CreatedAt)
}

func (r *CourseRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Course, error) {
	c := &models.Course{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, platform, url, status, created_at
		FROM courses WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&c.ID, &c.UserID, &c.Title, &c.Platform, &c.URL, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the user's courses newest first, each with its notes attached.
func (r *CourseRepo) List(ctx context.Context, userID uuid.UUID) ([]models.Course, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, platform, url, status, created_at
		FROM courses WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Platform, &c.URL, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Notes = make([]models.CourseNote, 0)
		index[c.ID] = len(courses)
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return courses, nil
	}

	noteRows, err := r.pool.Query(ctx, `
		SELECT id, user_id, course_id, title, description, created_at, updated_at
		FROM course_notes WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var n models.CourseNote
		if err := noteRows.Scan(&n.ID, &n.UserID, &n.CourseID, &n.Title, &n.Description, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[n.CourseID]; ok {
			courses[i].Notes = append(courses[i].Notes, n)
		}
	}
	return courses, noteRows.Err()
}

func (r *CourseRepo) Update(ctx context.Context, c *models.Course) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE courses SET title = $1, platform = $2, url = $3, status = $4
		WHERE id = $5 AND user_id = $6
	`, c.Title, c.Platform, c.URL, c.Status, c.ID, c.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CourseRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM courses WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CourseRepo) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM courses WHERE user_id = $1 AND status = $2",
		userID, models.CourseStatusActive,
	).Scan(&n)
	return n, err
}
