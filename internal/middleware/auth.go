package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"studytrack/internal/models"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	EmailKey  contextKey = "email"
)

// AccessTokenTTL is the lifetime of issued access tokens.
const AccessTokenTTL = 15 * time.Minute

type JWTAuth struct {
	Secret []byte
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret)}
}

// GenerateAccessToken creates a JWT with 15 minute expiry
func (j *JWTAuth) GenerateAccessToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"email":   email,
		"exp":     now.Add(AccessTokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

var errInvalidClaims = errors.New("invalid token claims")

// ParseToken verifies tokenStr and returns the identity it carries.
func (j *JWTAuth) ParseToken(tokenStr string) (models.Identity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	})
	if err != nil {
		return models.Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, errInvalidClaims
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return models.Identity{}, errInvalidClaims
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return models.Identity{}, errInvalidClaims
	}
	email, _ := claims["email"].(string)
	return models.Identity{UserID: userID, Email: email}, nil
}

// Middleware validates JWT and attaches the caller's identity to context
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header", r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization format", r)
			return
		}

		identity, err := j.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", r)
			} else {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", r)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity attaches identity to ctx.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, identity.UserID)
	return context.WithValue(ctx, EmailKey, identity.Email)
}

// GetUserID extracts user_id from request context
func GetUserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}

// GetIdentity returns the caller, or the zero identity when unauthenticated.
func GetIdentity(ctx context.Context) models.Identity {
	email, _ := ctx.Value(EmailKey).(string)
	return models.Identity{UserID: GetUserID(ctx), Email: email}
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	})
}
