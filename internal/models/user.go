package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultDailyGoalMinutes applies when a profile has no usable daily goal.
const DefaultDailyGoalMinutes = 120

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

type Profile struct {
	UserID           uuid.UUID `json:"user_id"`
	DisplayName      string    `json:"display_name"`
	DailyGoalMinutes int       `json:"daily_goal_minutes"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// EffectiveDailyGoal falls back to DefaultDailyGoalMinutes for missing or non-positive goals.
func (p *Profile) EffectiveDailyGoal() int {
	if p == nil || p.DailyGoalMinutes <= 0 {
		return DefaultDailyGoalMinutes
	}
	return p.DailyGoalMinutes
}

type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Identity is the resolved caller. The zero value means unauthenticated.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
}

func (i Identity) IsZero() bool { return i.UserID == uuid.Nil }

type ProfileRequest struct {
	DisplayName      *string `json:"display_name"`
	DailyGoalMinutes *int    `json:"daily_goal_minutes"`
}
