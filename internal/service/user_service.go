package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"eventflow/internal/cache"
	apperrors "eventflow/internal/errors"
	"eventflow/internal/model"
	"eventflow/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes account lookups and staff provisioning.
type UserService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	EnsureStaff(ctx context.Context, email, name, password string, role model.Role) (created bool, err error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// GetProfile returns the public profile of a user. Roles never change, so
// the cached copy cannot go stale on the fields it carries.
func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Profile
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	profile := user.Profile()
	if payload, err := json.Marshal(profile); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return &profile, nil
}

// EnsureStaff creates a pre-verified reviewer or admin account unless the
// email is already registered. Existing accounts are left untouched.
func (s *userService) EnsureStaff(ctx context.Context, email, name, password string, role model.Role) (bool, error) {
	if role == model.RoleStudent || !role.Valid() {
		return false, apperrors.NewValidationError("staff role must be category_reviewer, budget_reviewer or admin, got %q", role)
	}
	email = normalizeEmail(email)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(name),
		Role:         role,
		IsVerified:   true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	return true, nil
}
