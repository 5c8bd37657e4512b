package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytrack/internal/models"
)

type DailyStatsRepo struct {
	pool *pgxpool.Pool
}

func NewDailyStatsRepo(pool *pgxpool.Pool) *DailyStatsRepo {
	return &DailyStatsRepo{pool: pool}
}

func (r *DailyStatsRepo) Upsert(ctx context.Context, userID uuid.UUID, day time.Time, totalSeconds int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_stats (user_id, date, total_seconds, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, date) DO UPDATE
		SET total_seconds = EXCLUDED.total_seconds, updated_at = NOW()
	`, userID, time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC), totalSeconds)
	return err
}

// Recent returns up to limit rollups, newest first.
func (r *DailyStatsRepo) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.DailyStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, date, total_seconds
		FROM daily_stats
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]models.DailyStat, 0, limit)
	for rows.Next() {
		var s models.DailyStat
		if err := rows.Scan(&s.UserID, &s.Date, &s.TotalSeconds); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
