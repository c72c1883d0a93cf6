package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"eventflow/internal/auth"
	"eventflow/internal/errors"
)

// IdentityContextKey is where the bearer middleware stores *auth.Identity.
const IdentityContextKey = "identity"

// fail converts a domain error to the JSON error envelope.
func fail(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	he := echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	if httpErr.StatusCode >= http.StatusInternalServerError {
		// Kept for the error log; never rendered.
		he.SetInternal(err)
	}
	return he
}

// badRequest builds a 400 with the given code.
func badRequest(message, code string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// identityFrom returns the authenticated caller. Routes behind the bearer
// middleware always have one; a missing value means the route was wired
// without it.
func identityFrom(c echo.Context) (*auth.Identity, error) {
	identity, ok := c.Get(IdentityContextKey).(*auth.Identity)
	if !ok || identity == nil {
		return nil, errors.ErrMissingCredential
	}
	return identity, nil
}
