package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "eventflow/internal/errors"
	"eventflow/internal/model"
)

// DefaultTokenTTL is used when the service is built with a non-positive TTL.
const DefaultTokenTTL = 24 * time.Hour

// Claims represents JWT claims.
type Claims struct {
	UserID string     `json:"id"`
	Role   model.Role `json:"role"`
	Email  string     `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the verified caller of a request. It is trusted for the
// lifetime of the request and never re-read from the user store.
type Identity struct {
	ID    uuid.UUID
	Role  model.Role
	Email string
}

// JWTService issues and verifies signed identity tokens.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret and token lifetime.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// GenerateToken signs an identity token for the user.
func (s *JWTService) GenerateToken(user *model.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID.String(),
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyAuthorizationHeader validates a raw Authorization header value and
// returns the caller identity.
func (s *JWTService) VerifyAuthorizationHeader(header string) (*Identity, error) {
	if strings.TrimSpace(header) == "" {
		return nil, apperrors.ErrMissingCredential
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil, apperrors.ErrMalformedCredential
	}

	return s.ValidateToken(parts[1])
}

// ValidateToken validates a JWT token and returns the identity it asserts.
func (s *JWTService) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrExpiredCredential
		}
		return nil, apperrors.ErrInvalidCredential
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidCredential
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil || !claims.Role.Valid() {
		return nil, apperrors.ErrInvalidCredential
	}

	return &Identity{ID: id, Role: claims.Role, Email: claims.Email}, nil
}
