package handler

import (
	stderrors "errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"eventflow/internal/errors"
)

// ErrorHandler renders every error as an errors.ErrorResponse. Handlers
// already return envelopes; this covers router errors (404, 405), binder
// errors, recovered panics and anything returned unwrapped.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := renderError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request %s %s %s failed: %v",
			c.Response().Header().Get(echo.HeaderXRequestID), c.Request().Method, c.Request().URL.Path, err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		log.Printf("write error response: %v", writeErr)
	}
}

func renderError(err error) (int, errors.ErrorResponse) {
	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		switch msg := he.Message.(type) {
		case errors.ErrorResponse:
			return he.Code, msg
		case string:
			return he.Code, errors.ErrorResponse{Error: msg, Code: statusCode(he.Code)}
		default:
			return he.Code, errors.ErrorResponse{Error: fmt.Sprint(msg), Code: statusCode(he.Code)}
		}
	}

	httpErr := errors.MapErrorToHTTP(err)
	return httpErr.StatusCode, httpErr.ToErrorResponse()
}

// statusCode derives a machine code for errors raised by Echo itself.
func statusCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "TOO_MANY_ATTEMPTS"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}
