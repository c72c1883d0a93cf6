package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"eventflow/internal/auth"
	apperrors "eventflow/internal/errors"
	"eventflow/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ReplaceOTP(ctx context.Context, id uuid.UUID, otp string, expiry time.Time) error {
	args := m.Called(ctx, id, otp, expiry)
	return args.Error(0)
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockAttemptLimiter is a mock implementation of AttemptLimiterInterface.
type MockAttemptLimiter struct {
	mock.Mock
}

func (m *MockAttemptLimiter) Allow(ctx context.Context, scope, subject string) bool {
	args := m.Called(ctx, scope, subject)
	return args.Bool(0)
}

func (m *MockAttemptLimiter) Reset(ctx context.Context, scope, subject string) {
	m.Called(ctx, scope, subject)
}

// MockOTPSender records delivered codes.
type MockOTPSender struct {
	mock.Mock
}

func (m *MockOTPSender) Send(ctx context.Context, email, code string) error {
	args := m.Called(ctx, email, code)
	return args.Error(0)
}

type authFixture struct {
	repo    *MockUserRepository
	limiter *MockAttemptLimiter
	sender  *MockOTPSender
	svc     *authService
	now     time.Time
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		repo:    new(MockUserRepository),
		limiter: new(MockAttemptLimiter),
		sender:  new(MockOTPSender),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	svc := NewAuthService(f.repo, auth.NewJWTService("test-secret", time.Hour), f.limiter, f.sender, 10*time.Minute).(*authService)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.repo.On("FindByEmail", ctx, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(nil)
	f.sender.On("Send", ctx, "alice@example.com", mock.AnythingOfType("string")).Return(nil)

	user, err := f.svc.Register(ctx, "  Alice@Example.com ", "password123", " Alice ")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.OTP)
	assert.Len(t, *user.OTP, auth.OTPLength)
	require.NotNil(t, user.OTPExpiry)
	assert.Equal(t, f.now.Add(10*time.Minute), *user.OTPExpiry)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))

	sentCode := f.sender.Calls[0].Arguments.String(2)
	assert.Equal(t, *user.OTP, sentCode)
	f.repo.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.repo.On("FindByEmail", ctx, "alice@example.com").Return(&model.User{Email: "alice@example.com"}, nil)

	_, err := f.svc.Register(ctx, "alice@example.com", "password123", "Alice")
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterLosesInsertRace(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.repo.On("FindByEmail", ctx, "carol@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)

	_, err := f.svc.Register(ctx, "carol@example.com", "password123", "Carol")
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_RegisterSendFailureKeepsAccount(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.repo.On("FindByEmail", ctx, "bob@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(nil)
	f.sender.On("Send", ctx, "bob@example.com", mock.AnythingOfType("string")).Return(errors.New("smtp down"))

	user, err := f.svc.Register(ctx, "bob@example.com", "password123", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
}

func TestAuthService_VerifyOTP(t *testing.T) {
	code := "123456"
	validUntil := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	expiredAt := time.Date(2026, 3, 1, 11, 55, 0, 0, time.UTC)

	tests := []struct {
		name     string
		user     *model.User
		findErr  error
		otp      string
		wantErr  error
		verifies bool
	}{
		{name: "valid code", user: &model.User{OTP: &code, OTPExpiry: &validUntil}, otp: "123456", verifies: true},
		{name: "wrong code", user: &model.User{OTP: &code, OTPExpiry: &validUntil}, otp: "654321", wantErr: apperrors.ErrInvalidOTP},
		{name: "expired code", user: &model.User{OTP: &code, OTPExpiry: &expiredAt}, otp: "123456", wantErr: apperrors.ErrOTPExpired},
		{name: "already verified", user: &model.User{IsVerified: true}, otp: "123456", wantErr: apperrors.ErrAlreadyVerified},
		{name: "unknown email", findErr: gorm.ErrRecordNotFound, otp: "123456", wantErr: apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			ctx := context.Background()

			f.limiter.On("Allow", ctx, verifyScope, "carol@example.com").Return(true)
			if tt.user != nil {
				tt.user.ID = uuid.New()
				tt.user.Email = "carol@example.com"
				f.repo.On("FindByEmail", ctx, "carol@example.com").Return(tt.user, nil)
			} else {
				f.repo.On("FindByEmail", ctx, "carol@example.com").Return(nil, tt.findErr)
			}
			if tt.verifies {
				f.repo.On("MarkVerified", ctx, tt.user.ID).Return(true, nil)
				f.limiter.On("Reset", ctx, verifyScope, "carol@example.com").Return()
			}

			err := f.svc.VerifyOTP(ctx, "carol@example.com", tt.otp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				f.repo.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			f.repo.AssertExpectations(t)
			f.limiter.AssertExpectations(t)
		})
	}
}

func TestAuthService_VerifyOTPLostRace(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	code := "123456"
	expiry := f.now.Add(time.Minute)
	user := &model.User{ID: uuid.New(), Email: "dan@example.com", OTP: &code, OTPExpiry: &expiry}

	f.limiter.On("Allow", ctx, verifyScope, "dan@example.com").Return(true)
	f.repo.On("FindByEmail", ctx, "dan@example.com").Return(user, nil)
	f.repo.On("MarkVerified", ctx, user.ID).Return(false, nil)

	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "dan@example.com", "123456"), apperrors.ErrAlreadyVerified)
}

func TestAuthService_VerifyOTPThrottled(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.limiter.On("Allow", ctx, verifyScope, "eve@example.com").Return(false)

	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "eve@example.com", "000000"), apperrors.ErrTooManyAttempts)
	f.repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAuthService_ResendOTP(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := &model.User{ID: uuid.New(), Email: "fay@example.com"}

	f.limiter.On("Allow", ctx, resendScope, "fay@example.com").Return(true)
	f.repo.On("FindByEmail", ctx, "fay@example.com").Return(user, nil)
	f.repo.On("ReplaceOTP", ctx, user.ID, mock.AnythingOfType("string"), f.now.Add(10*time.Minute)).Return(nil)
	f.sender.On("Send", ctx, "fay@example.com", mock.AnythingOfType("string")).Return(nil)

	require.NoError(t, f.svc.ResendOTP(ctx, "fay@example.com"))

	stored := f.repo.Calls[1].Arguments.String(2)
	sent := f.sender.Calls[0].Arguments.String(2)
	assert.Equal(t, stored, sent)
	f.repo.AssertExpectations(t)
}

func TestAuthService_ResendOTPAlreadyVerified(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.limiter.On("Allow", ctx, resendScope, "gus@example.com").Return(true)
	f.repo.On("FindByEmail", ctx, "gus@example.com").Return(&model.User{ID: uuid.New(), IsVerified: true}, nil)

	assert.ErrorIs(t, f.svc.ResendOTP(ctx, "gus@example.com"), apperrors.ErrAlreadyVerified)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := &model.User{
		ID:           uuid.New(),
		Email:        "hal@example.com",
		PasswordHash: hashed(t, "password123"),
		Role:         model.RoleCategoryReviewer,
		IsVerified:   true,
	}

	f.limiter.On("Allow", ctx, loginScope, "hal@example.com").Return(true)
	f.limiter.On("Reset", ctx, loginScope, "hal@example.com").Return()
	f.repo.On("FindByEmail", ctx, "hal@example.com").Return(user, nil)

	token, got, err := f.svc.Login(ctx, "HAL@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	identity, err := auth.NewJWTService("test-secret", time.Hour).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, model.RoleCategoryReviewer, identity.Role)
	f.limiter.AssertExpectations(t)
}

func TestAuthService_LoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		findErr  error
		password string
		wantErr  error
	}{
		{name: "unknown email", findErr: gorm.ErrRecordNotFound, password: "password123", wantErr: apperrors.ErrInvalidCredentials},
		{name: "wrong password", user: &model.User{IsVerified: true}, password: "nope", wantErr: apperrors.ErrInvalidCredentials},
		{name: "unverified", user: &model.User{}, password: "password123", wantErr: apperrors.ErrNotVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			ctx := context.Background()

			f.limiter.On("Allow", ctx, loginScope, "ivy@example.com").Return(true)
			if tt.user != nil {
				tt.user.ID = uuid.New()
				tt.user.Email = "ivy@example.com"
				tt.user.PasswordHash = hashed(t, "password123")
				tt.user.Role = model.RoleStudent
				f.repo.On("FindByEmail", ctx, "ivy@example.com").Return(tt.user, nil)
			} else {
				f.repo.On("FindByEmail", ctx, "ivy@example.com").Return(nil, tt.findErr)
			}

			token, _, err := f.svc.Login(ctx, "ivy@example.com", tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, token)
			f.limiter.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_LoginThrottled(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.limiter.On("Allow", ctx, loginScope, "jo@example.com").Return(false)

	_, _, err := f.svc.Login(ctx, "jo@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrTooManyAttempts)
}
