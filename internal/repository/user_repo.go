package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	user.ID = uuid.New()
	user.IsActive = true

	return r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName,
	).Scan(&user.CreatedAt)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, password_hash, full_name, is_active, created_at, last_login_at
		FROM users WHERE email = $1`

	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, password_hash, full_name, is_active, created_at, last_login_at
		FROM users WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET last_login_at = $1 WHERE id = $2", time.Now(), userID)
	return err
}

func (r *UserRepo) CreateProfile(ctx context.Context, userID uuid.UUID, displayName string) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO profiles (user_id, display_name) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, displayName,
	)
	return err
}

func (r *UserRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, display_name, daily_goal_minutes, updated_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.DisplayName, &p.DailyGoalMinutes, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, display_name, daily_goal_minutes, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			daily_goal_minutes = EXCLUDED.daily_goal_minutes,
			updated_at = NOW()
		RETURNING updated_at
	`, p.UserID, p.DisplayName, p.DailyGoalMinutes).Scan(&p.UpdatedAt)
}
