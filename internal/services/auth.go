package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"studytrack/internal/middleware"
	"studytrack/internal/models"
)

const refreshTokenTTL = 7 * 24 * time.Hour

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	CreateProfile(ctx context.Context, userID uuid.UUID, displayName string) error
}

// TokenStore keeps opaque refresh tokens.
type TokenStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, token string) error
}

// RedisTokenStore keeps refresh tokens under "refresh:<token>".
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return s.client.Set(ctx, "refresh:"+token, userID.String(), ttl).Err()
}

func (s *RedisTokenStore) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, "refresh:"+token).Result()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (s *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, "refresh:"+token).Err()
}

type AuthService struct {
	userRepo userStore
	tokens   TokenStore
	jwt      *middleware.JWTAuth
}

func NewAuthService(userRepo userStore, tokens TokenStore, jwt *middleware.JWTAuth) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		jwt:      jwt,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.AuthTokens, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	// Validate all fields at once
	fieldErrors := make(map[string]string)
	if req.FullName == "" {
		fieldErrors["full_name"] = "Full name is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		return nil, nil, &ValidationError{Fields: fieldErrors}
	}

	_, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, nil, &ConflictError{Message: "Email already in use"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}
	if err := s.userRepo.CreateProfile(ctx, user.ID, user.FullName); err != nil {
		return nil, nil, fmt.Errorf("failed to create profile: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	s.userRepo.UpdateLastLogin(ctx, user.ID)

	return s.issueTokens(ctx, user)
}

// RefreshToken rotates refreshToken: the old token is revoked before a new pair is issued.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	if refreshToken == "" {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}
	userID, err := s.tokens.Lookup(ctx, refreshToken)
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	s.tokens.Revoke(ctx, refreshToken)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// Me returns the user behind identity.
func (s *AuthService) Me(ctx context.Context, identity models.Identity) (*models.User, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}
	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Save(ctx, refreshToken, user.ID, refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL.Seconds()),
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
