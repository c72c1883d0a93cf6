package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"eventflow/internal/model"
)

// StatusChange describes a guarded status transition and the comment it writes.
type StatusChange struct {
	ID           uuid.UUID
	From         model.ProposalStatus
	To           model.ProposalStatus
	CommentField model.CommentField
	Comments     string
}

// ProposalRepository defines proposal persistence operations. It enforces no
// business rules; transition legality is decided by the caller.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *model.Proposal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error)
	List(ctx context.Context, filter model.ProposalFilter) ([]model.Proposal, error)
	CompareAndSetStatus(ctx context.Context, change StatusChange) (bool, error)
}

type proposalRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProposalRepository creates a new proposal repository.
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db, now: time.Now}
}

// Create creates a new proposal record.
func (r *proposalRepository) Create(ctx context.Context, proposal *model.Proposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

// FindByID finds a proposal by ID.
func (r *proposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	var proposal model.Proposal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&proposal).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

// List returns proposals matching filter, newest first.
func (r *proposalRepository) List(ctx context.Context, filter model.ProposalFilter) ([]model.Proposal, error) {
	q := r.db.WithContext(ctx).Model(&model.Proposal{})
	if filter.StudentID != uuid.Nil {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	proposals := make([]model.Proposal, 0)
	if err := q.Order("created_at DESC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

// CompareAndSetStatus moves a proposal from change.From to change.To and
// writes the phase comment, but only while the row still has status From.
// It reports false when no row matched.
func (r *proposalRepository) CompareAndSetStatus(ctx context.Context, change StatusChange) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Proposal{}).
		Where("id = ? AND status = ?", change.ID, change.From).
		Updates(map[string]interface{}{
			"status":                    change.To,
			string(change.CommentField): change.Comments,
			"updated_at":                r.now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
