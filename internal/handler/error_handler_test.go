package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventflow/internal/errors"
)

func runErrorHandler(t *testing.T, err error) (*httptest.ResponseRecorder, apperrors.ErrorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/proposals", nil), rec)

	ErrorHandler(err, c)

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{
			name:   "envelope passes through",
			err:    fail(&apperrors.InvalidPhaseError{CurrentStatus: "approved"}),
			status: http.StatusBadRequest,
			code:   "INVALID_PHASE",
			msg:    "Cannot review: Proposal status is currently 'approved'.",
		},
		{
			name:   "echo route miss",
			err:    echo.ErrNotFound,
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
			msg:    "Not Found",
		},
		{
			name:   "unwrapped domain error",
			err:    apperrors.ErrExpiredCredential,
			status: http.StatusForbidden,
			code:   "AUTH_EXPIRED",
			msg:    "token expired",
		},
		{
			name:   "store failure stays generic",
			err:    fail(errors.New("dial tcp 10.0.0.5:3306: connection refused")),
			status: http.StatusInternalServerError,
			code:   "INTERNAL_ERROR",
			msg:    "internal server error",
		},
		{
			name:   "panic value",
			err:    errors.New("runtime error: index out of range"),
			status: http.StatusInternalServerError,
			code:   "INTERNAL_ERROR",
			msg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := runErrorHandler(t, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.msg, body.Error)
		})
	}
}

func TestErrorHandler_Details(t *testing.T) {
	_, body := runErrorHandler(t, fail(&apperrors.InvalidPhaseError{CurrentStatus: "rejected"}))
	assert.Equal(t, map[string]interface{}{"current_status": "rejected"}, body.Details)
}
