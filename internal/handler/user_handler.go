package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"eventflow/internal/service"
)

// UserHandler bundles account endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Profile
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return fail(err)
	}

	profile, err := h.svc.GetProfile(c.Request().Context(), identity.ID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, profile)
}
