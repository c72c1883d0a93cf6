package service

import (
	"strings"

	apperrors "eventflow/internal/errors"
	"eventflow/internal/model"
)

// ReviewAction is a reviewer's decision.
type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

// Transition is the outcome of a legal review: the guarded source status,
// the target status and the comment column the phase owns.
type Transition struct {
	From         model.ProposalStatus
	To           model.ProposalStatus
	CommentField model.CommentField
}

// reviewPhase binds a reviewer role to the status it may act on.
type reviewPhase struct {
	name        string
	status      model.ProposalStatus
	onApprove   model.ProposalStatus
	commentOnto model.CommentField
}

var reviewPhases = map[model.Role]reviewPhase{
	model.RoleCategoryReviewer: {
		name:        "category",
		status:      model.StatusPendingCategory,
		onApprove:   model.StatusPendingBudget,
		commentOnto: model.CategoryReviewerComments,
	},
	model.RoleBudgetReviewer: {
		name:        "budget",
		status:      model.StatusPendingBudget,
		onApprove:   model.StatusApproved,
		commentOnto: model.BudgetReviewerComments,
	},
}

// PhaseName returns the review phase a role acts in, or "" for non-reviewers.
func PhaseName(role model.Role) string {
	return reviewPhases[role].name
}

// ValidateReviewInput rejects blank comments and unknown actions.
func ValidateReviewInput(action ReviewAction, comments string) error {
	if strings.TrimSpace(comments) == "" || (action != ActionApprove && action != ActionReject) {
		return apperrors.NewValidationError("Comments and a valid action ('approve' or 'reject') are required.")
	}
	return nil
}

// ApplyReview computes the transition for a reviewer acting on a proposal in
// the given status. It has no side effects; persisting the transition is the
// caller's job and must be guarded on Transition.From.
func ApplyReview(current model.ProposalStatus, role model.Role, action ReviewAction, comments string) (Transition, error) {
	phase, ok := reviewPhases[role]
	if !ok {
		return Transition{}, &apperrors.ForbiddenError{Reason: "only reviewers can review proposals."}
	}
	if err := ValidateReviewInput(action, comments); err != nil {
		return Transition{}, err
	}
	if current != phase.status {
		return Transition{}, &apperrors.InvalidPhaseError{CurrentStatus: string(current)}
	}

	next := model.StatusRejected
	if action == ActionApprove {
		next = phase.onApprove
	}
	return Transition{From: current, To: next, CommentField: phase.commentOnto}, nil
}
