package handler

import (
	stderrors "errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"eventflow/internal/auth"
	"eventflow/internal/errors"
	"eventflow/internal/service"
)

const authErrorContextKey = "auth_error"

// BearerAuth verifies the Authorization header and stores the caller's
// identity under IdentityContextKey. Missing or malformed headers and bad
// signatures answer 401; a correctly signed but expired token answers 403.
func BearerAuth(verifier *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  IdentityContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization,
		ParseTokenFunc: func(c echo.Context, header string) (interface{}, error) {
			identity, err := verifier.VerifyAuthorizationHeader(header)
			if err != nil {
				c.Set(authErrorContextKey, err)
				return nil, err
			}
			return identity, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if authErr, ok := c.Get(authErrorContextKey).(error); ok {
				return fail(authErr)
			}
			if stderrors.Is(err, errors.ErrMalformedCredential) {
				return fail(errors.ErrMalformedCredential)
			}
			return fail(errors.ErrMissingCredential)
		},
	})
}

// RequireAction rejects callers whose role may not perform action. It runs
// before the handler, so a wrong role never reaches body validation.
func RequireAction(action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := identityFrom(c)
			if err != nil {
				return fail(err)
			}
			if err := service.CheckAction(identity, action); err != nil {
				return fail(err)
			}
			return next(c)
		}
	}
}
