package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"eventflow/internal/model"
	"eventflow/internal/service"
)

const eventDateLayout = "2006-01-02"

// ProposalHandler handles proposal endpoints.
type ProposalHandler struct {
	proposalService service.ProposalService
}

// NewProposalHandler creates a new proposal handler.
func NewProposalHandler(proposalService service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

// CreateProposalRequest represents a student's proposal submission.
type CreateProposalRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description" validate:"required"`
	Category    string          `json:"category" validate:"required,max=100"`
	Budget      decimal.Decimal `json:"budget" swaggertype:"number"`
	Footfall    *int            `json:"footfall" validate:"omitempty,gte=0"`
	EventDate   string          `json:"event_date" validate:"required"`
	Venue       string          `json:"venue" validate:"required,max=255"`
}

// CreateProposalResponse is returned after a proposal is stored.
type CreateProposalResponse struct {
	Message            string  `json:"message"`
	ProposalID         string  `json:"proposalId"`
	MLFeasibilityScore float64 `json:"ml_feasibility_score"`
}

// ReviewRequest carries a reviewer's decision.
type ReviewRequest struct {
	Comments string `json:"comments"`
	Action   string `json:"action"`
}

// ReviewResponse reports the applied transition.
type ReviewResponse struct {
	Message      string `json:"message"`
	ID           string `json:"id"`
	NewStatus    string `json:"newStatus"`
	CommentField string `json:"commentField"`
}

// ProposalResponse is the public shape of a proposal.
type ProposalResponse struct {
	ID                       string    `json:"id"`
	StudentID                string    `json:"student_id"`
	Title                    string    `json:"title"`
	Description              string    `json:"description"`
	Category                 string    `json:"category"`
	Budget                   float64   `json:"budget"`
	Footfall                 int       `json:"footfall"`
	EventDate                string    `json:"event_date"`
	Venue                    string    `json:"venue"`
	Status                   string    `json:"status"`
	CategoryReviewerComments *string   `json:"category_reviewer_comments"`
	BudgetReviewerComments   *string   `json:"budget_reviewer_comments"`
	MLFeasibilityScore       float64   `json:"ml_feasibility_score"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// ProposalListResponse is a role-scoped listing.
type ProposalListResponse struct {
	Title     string             `json:"title"`
	Proposals []ProposalResponse `json:"proposals"`
}

func toProposalResponse(p *model.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:                       p.ID.String(),
		StudentID:                p.StudentID.String(),
		Title:                    p.Title,
		Description:              p.Description,
		Category:                 p.Category,
		Budget:                   p.Budget.InexactFloat64(),
		Footfall:                 p.Footfall,
		EventDate:                p.EventDate.Format(eventDateLayout),
		Venue:                    p.Venue,
		Status:                   string(p.Status),
		CategoryReviewerComments: p.CategoryReviewerComments,
		BudgetReviewerComments:   p.BudgetReviewerComments,
		MLFeasibilityScore:       p.MLFeasibilityScore,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
	}
}

// parseEventDate accepts a calendar date or a full RFC 3339 timestamp.
func parseEventDate(s string) (time.Time, bool) {
	if t, err := time.Parse(eventDateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func parseProposalID(c echo.Context) (uuid.UUID, *echo.HTTPError) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid proposal id", "INVALID_UUID")
	}
	return id, nil
}

// Create godoc
// @Summary Submit a proposal
// @Description Stores a new proposal in pending_category. The feasibility score is 0 when the scoring service is unavailable.
// @Tags proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProposalRequest true "Proposal data"
// @Success 201 {object} CreateProposalResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /proposals [post]
func (h *ProposalHandler) Create(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return fail(err)
	}

	var req CreateProposalRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Missing required fields.", "VALIDATION_ERROR")
	}

	if err := c.Validate(&req); err != nil {
		return badRequest("Missing required fields.", "VALIDATION_ERROR")
	}

	if !req.Budget.IsPositive() {
		return badRequest("Missing required fields.", "VALIDATION_ERROR")
	}

	eventDate, ok := parseEventDate(req.EventDate)
	if !ok {
		return badRequest("event_date must be YYYY-MM-DD or RFC 3339", "VALIDATION_ERROR")
	}

	footfall := 0
	if req.Footfall != nil {
		footfall = *req.Footfall
	}

	proposal, scored, err := h.proposalService.Create(c.Request().Context(), identity, service.NewProposal{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      req.Budget,
		Footfall:    footfall,
		EventDate:   eventDate,
		Venue:       req.Venue,
	})
	if err != nil {
		return fail(err)
	}

	message := "Proposal submitted successfully."
	if scored {
		message = "Proposal submitted successfully and ML score generated."
	}

	return c.JSON(http.StatusCreated, CreateProposalResponse{
		Message:            message,
		ProposalID:         proposal.ID.String(),
		MLFeasibilityScore: proposal.MLFeasibilityScore,
	})
}

// List godoc
// @Summary List proposals for the caller
// @Description Students see their own proposals; reviewers see their queue. Newest first.
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProposalListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /proposals [get]
func (h *ProposalHandler) List(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return fail(err)
	}

	scope, proposals, err := h.proposalService.List(c.Request().Context(), identity)
	if err != nil {
		return fail(err)
	}

	resp := ProposalListResponse{Title: scope.Title, Proposals: make([]ProposalResponse, 0, len(proposals))}
	for i := range proposals {
		resp.Proposals = append(resp.Proposals, toProposalResponse(&proposals[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a proposal
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Proposal ID (UUID)"
// @Success 200 {object} ProposalResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /proposals/{id} [get]
func (h *ProposalHandler) Get(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return fail(err)
	}

	id, httpErr := parseProposalID(c)
	if httpErr != nil {
		return httpErr
	}

	proposal, err := h.proposalService.Get(c.Request().Context(), identity, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, toProposalResponse(proposal))
}

// CategoryReview godoc
// @Summary Category review
// @Description Approve moves the proposal to pending_budget; reject ends it.
// @Tags proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Proposal ID (UUID)"
// @Param request body ReviewRequest true "Decision"
// @Success 200 {object} ReviewResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /proposals/{id}/category-review [patch]
func (h *ProposalHandler) CategoryReview(c echo.Context) error {
	return h.review(c, "Category review submitted.")
}

// BudgetReview godoc
// @Summary Budget review
// @Description Approve moves the proposal to approved; reject ends it.
// @Tags proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Proposal ID (UUID)"
// @Param request body ReviewRequest true "Decision"
// @Success 200 {object} ReviewResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /proposals/{id}/budget-review [patch]
func (h *ProposalHandler) BudgetReview(c echo.Context) error {
	return h.review(c, "Budget review submitted.")
}

func (h *ProposalHandler) review(c echo.Context, message string) error {
	identity, err := identityFrom(c)
	if err != nil {
		return fail(err)
	}

	id, httpErr := parseProposalID(c)
	if httpErr != nil {
		return httpErr
	}

	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}

	result, err := h.proposalService.Review(c.Request().Context(), identity, id, service.ReviewAction(req.Action), req.Comments)
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusOK, ReviewResponse{
		Message:      message,
		ID:           result.ID.String(),
		NewStatus:    string(result.NewStatus),
		CommentField: string(result.CommentField),
	})
}
