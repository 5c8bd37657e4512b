package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studytrack/internal/models"
)

// maxDailyGoalMinutes is one full day.
const maxDailyGoalMinutes = 24 * 60

type profileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
}

type ProfileService struct {
	profiles profileStore
}

func NewProfileService(profiles profileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get returns the caller's profile. A missing profile or goal yields the default goal.
func (s *ProfileService) Get(ctx context.Context, identity models.Identity) (*models.Profile, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}
	p, err := s.profiles.GetProfile(ctx, identity.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		p = &models.Profile{UserID: identity.UserID}
	} else if err != nil {
		return nil, err
	}
	p.DailyGoalMinutes = p.EffectiveDailyGoal()
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, identity models.Identity, req models.ProfileRequest) (*models.Profile, error) {
	p, err := s.Get(ctx, identity)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	if req.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.DailyGoalMinutes != nil {
		goal := *req.DailyGoalMinutes
		if goal < 1 || goal > maxDailyGoalMinutes {
			fields["daily_goal_minutes"] = "Daily goal must be between 1 and 1440 minutes"
		}
		p.DailyGoalMinutes = goal
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.profiles.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
