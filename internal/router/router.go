package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"eventflow/internal/auth"
	"eventflow/internal/config"
	"eventflow/internal/handler"
	"eventflow/internal/metrics"
	"eventflow/internal/service"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Proposal *handler.ProposalHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	m *metrics.Metrics,
	h Handlers,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = handler.ErrorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/verify-otp", h.Auth.VerifyOTP)
	api.POST("/auth/resend-otp", h.Auth.ResendOTP)
	api.POST("/auth/login", h.Auth.Login)

	// Secured routes (require a bearer token)
	secured := api.Group("", handler.BearerAuth(jwtService))

	secured.GET("/me", h.User.Me)

	// Proposal routes
	secured.POST("/proposals", h.Proposal.Create, handler.RequireAction(service.ActionCreate))
	secured.GET("/proposals", h.Proposal.List)
	secured.GET("/proposals/:id", h.Proposal.Get)
	secured.PATCH("/proposals/:id/category-review", h.Proposal.CategoryReview, handler.RequireAction(service.ActionCategoryReview))
	secured.PATCH("/proposals/:id/budget-review", h.Proposal.BudgetReview, handler.RequireAction(service.ActionBudgetReview))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
