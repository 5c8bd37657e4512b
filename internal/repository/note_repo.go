package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack/internal/models"
)

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

func (r *NoteRepo) ListByCourse(ctx context.Context, courseID, userID uuid.UUID) ([]models.CourseNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, course_id, title, description, created_at, updated_at
		FROM course_notes
		WHERE course_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`, courseID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]models.CourseNote, 0)
	for rows.Next() {
		var n models.CourseNote
		if err := rows.Scan(&n.ID, &n.UserID, &n.CourseID, &n.Title, &n.Description, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) Create(ctx context.Context, n *models.CourseNote) error {
	n.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO course_notes (id, user_id, course_id, title, description)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at
	`, n.ID, n.UserID, n.CourseID, n.Title, n.Description).Scan(&n.CreatedAt)
}

func (r *NoteRepo) Update(ctx context.Context, n *models.CourseNote) error {
	return r.pool.QueryRow(ctx, `
		UPDATE course_notes SET title = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING course_id, created_at, updated_at
	`, n.Title, n.Description, n.ID, n.UserID).Scan(&n.CourseID, &n.CreatedAt, &n.UpdatedAt)
}

func (r *NoteRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM course_notes WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
