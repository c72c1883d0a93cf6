package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"eventflow/internal/model"
)

func TestUserRepository_MarkVerifiedOnce(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewUserRepository(gormDB)
	ctx := context.Background()

	otp := "123456"
	expiry := time.Now().Add(10 * time.Minute)
	user := &model.User{
		Email: "new@example.com", PasswordHash: "x", Name: "New",
		Role: model.RoleStudent, OTP: &otp, OTPExpiry: &expiry,
	}
	require.NoError(t, repo.Create(ctx, user))

	ok, err := repo.MarkVerified(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.True(t, found.IsVerified)
	assert.Nil(t, found.OTP)
	assert.Nil(t, found.OTPExpiry)
	assert.Equal(t, model.RoleStudent, found.Role)

	ok, err = repo.MarkVerified(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewUserRepository(gormDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{Email: "dup@example.com", PasswordHash: "x", Role: model.RoleStudent}))
	err := repo.Create(ctx, &model.User{Email: "dup@example.com", PasswordHash: "y", Role: model.RoleStudent})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
