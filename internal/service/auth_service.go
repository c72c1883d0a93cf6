package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"eventflow/internal/auth"
	apperrors "eventflow/internal/errors"
	"eventflow/internal/model"
	"eventflow/internal/repository"
)

const bcryptCost = 10

const (
	loginScope  = "login"
	verifyScope = "verify_otp"
	resendScope = "resend_otp"
)

// AuthService handles registration, OTP verification and login.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*model.User, error)
	VerifyOTP(ctx context.Context, email, otp string) error
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	limiter    auth.AttemptLimiterInterface
	sender     auth.OTPSender
	otpTTL     time.Duration
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	limiter auth.AttemptLimiterInterface,
	sender auth.OTPSender,
	otpTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		limiter:    limiter,
		sender:     sender,
		otpTTL:     otpTTL,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified student and sends a one-time code out of band.
func (s *authService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = normalizeEmail(email)

	// Check if user already exists
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return nil, err
	}
	expiry := s.now().Add(s.otpTTL)

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         strings.TrimSpace(name),
		Role:         model.RoleStudent,
		IsVerified:   false,
		OTP:          &otp,
		OTPExpiry:    &expiry,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration won the unique index on email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.sender.Send(ctx, user.Email, otp); err != nil {
		// The account exists; the code can be re-sent through ResendOTP.
		log.Printf("send otp to %s: %v", user.Email, err)
	}

	return user, nil
}

// VerifyOTP marks the account verified and clears its code.
func (s *authService) VerifyOTP(ctx context.Context, email, otp string) error {
	email = normalizeEmail(email)
	if !s.limiter.Allow(ctx, verifyScope, email) {
		return apperrors.ErrTooManyAttempts
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s: %w", email, apperrors.ErrNotFound)
		}
		return fmt.Errorf("find user: %w", err)
	}

	if user.IsVerified {
		return apperrors.ErrAlreadyVerified
	}
	if user.OTP == nil || *user.OTP != strings.TrimSpace(otp) {
		return apperrors.ErrInvalidOTP
	}
	if user.OTPExpiry == nil || s.now().After(*user.OTPExpiry) {
		return apperrors.ErrOTPExpired
	}

	verified, err := s.userRepo.MarkVerified(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}
	if !verified {
		return apperrors.ErrAlreadyVerified
	}

	s.limiter.Reset(ctx, verifyScope, email)
	return nil
}

// ResendOTP issues a fresh code for an unverified account. The previous code
// stops working.
func (s *authService) ResendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !s.limiter.Allow(ctx, resendScope, email) {
		return apperrors.ErrTooManyAttempts
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s: %w", email, apperrors.ErrNotFound)
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.IsVerified {
		return apperrors.ErrAlreadyVerified
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.userRepo.ReplaceOTP(ctx, user.ID, otp, s.now().Add(s.otpTTL)); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return s.sender.Send(ctx, user.Email, otp)
}

// Login authenticates a user and returns a signed identity token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = normalizeEmail(email)
	if !s.limiter.Allow(ctx, loginScope, email) {
		return "", nil, apperrors.ErrTooManyAttempts
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return "", nil, apperrors.ErrNotVerified
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	s.limiter.Reset(ctx, loginScope, email)
	return token, user, nil
}

// HashPassword hashes a password with the service's bcrypt cost.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
