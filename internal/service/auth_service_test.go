package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/model"
)

func newTestAuthService(t *testing.T) (*AuthService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4, // fast for tests
	}
	return NewAuthService(cfg, rdb, nil), mr
}

func signTestToken(t *testing.T, secret string, userID uuid.UUID, role model.Role, jti string) string {
	t.Helper()
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role:   role,
		UserID: userID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestPasswordHashRoundTrip(t *testing.T) {
	s, _ := newTestAuthService(t)

	hash, err := s.HashPassword("correct horse battery")
	require.NoError(t, err)

	assert.NoError(t, s.CheckPassword(hash, "correct horse battery"))
	assert.ErrorIs(t, s.CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	s, _ := newTestAuthService(t)
	userID := uuid.New()

	token := signTestToken(t, "test-secret", userID, model.RoleStudent, "jti-1")

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, model.RoleStudent, claims.Role)
	assert.Equal(t, "jti-1", claims.ID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	s, _ := newTestAuthService(t)
	token := signTestToken(t, "other-secret", uuid.New(), model.RoleStudent, "jti-1")

	_, err := s.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateStudentSession(t *testing.T) {
	s, mr := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	// No session at all.
	assert.Error(t, s.ValidateStudentSession(ctx, userID, "jti-1"))

	mr.Set("login:"+userID.String(), "jti-1")
	assert.NoError(t, s.ValidateStudentSession(ctx, userID, "jti-1"))

	// A different JTI means this token was superseded.
	assert.Error(t, s.ValidateStudentSession(ctx, userID, "jti-2"))
}

func TestLogoutReleasesSession(t *testing.T) {
	s, mr := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	mr.Set("login:"+userID.String(), "jti-1")
	require.NoError(t, s.Logout(ctx, userID))

	assert.False(t, mr.Exists("login:"+userID.String()))
}
