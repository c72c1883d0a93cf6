package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventflow/internal/errors"
	"eventflow/internal/model"
)

func testUser(role model.Role) *model.User {
	return &model.User{ID: uuid.New(), Email: "a@example.com", Role: role}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	user := testUser(model.RoleBudgetReviewer)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	identity, err := svc.VerifyAuthorizationHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, model.RoleBudgetReviewer, identity.Role)
	assert.Equal(t, user.Email, identity.Email)
}

func TestJWTService_VerifyAuthorizationHeader(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	good, err := svc.GenerateToken(testUser(model.RoleStudent))
	require.NoError(t, err)

	expiredSvc := NewJWTService("test-secret", time.Hour)
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredSvc.GenerateToken(testUser(model.RoleStudent))
	require.NoError(t, err)

	foreign, err := NewJWTService("other-secret", time.Hour).GenerateToken(testUser(model.RoleStudent))
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "valid", header: "Bearer " + good},
		{name: "missing", header: "", wantErr: apperrors.ErrMissingCredential},
		{name: "no scheme", header: good, wantErr: apperrors.ErrMalformedCredential},
		{name: "wrong scheme", header: "Basic " + good, wantErr: apperrors.ErrMalformedCredential},
		{name: "extra parts", header: "Bearer " + good + " x", wantErr: apperrors.ErrMalformedCredential},
		{name: "expired", header: "Bearer " + expired, wantErr: apperrors.ErrExpiredCredential},
		{name: "bad signature", header: "Bearer " + foreign, wantErr: apperrors.ErrInvalidCredential},
		{name: "garbage", header: "Bearer not.a.jwt", wantErr: apperrors.ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := svc.VerifyAuthorizationHeader(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, identity)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, identity)
		})
	}
}

func TestJWTService_RejectsUnknownRole(t *testing.T) {
	secret := []byte("test-secret")
	claims := &Claims{
		UserID: uuid.NewString(),
		Role:   model.Role("superuser"),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = NewJWTService(string(secret), time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.Len(t, code, OTPLength)
	}
}

func TestAttemptLimiter_FailsOpenWithoutRedis(t *testing.T) {
	limiter := NewAttemptLimiter(nil, 1, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(context.Background(), "login", "a@example.com"))
	}
}
