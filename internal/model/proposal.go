package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProposalStatus represents the review phase of a proposal.
type ProposalStatus string

const (
	StatusPendingCategory ProposalStatus = "pending_category"
	StatusPendingBudget   ProposalStatus = "pending_budget"
	StatusApproved        ProposalStatus = "approved"
	StatusRejected        ProposalStatus = "rejected"
)

// Terminal reports whether no further transition can leave s.
func (s ProposalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is one of the four lifecycle states.
func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusPendingCategory, StatusPendingBudget, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CommentField names the column a review phase writes.
type CommentField string

const (
	CategoryReviewerComments CommentField = "category_reviewer_comments"
	BudgetReviewerComments   CommentField = "budget_reviewer_comments"
)

// Proposal is an event proposal submitted by a student.
type Proposal struct {
	ID                       uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	StudentID                uuid.UUID       `json:"student_id" gorm:"type:char(36);not null;index"`
	Title                    string          `json:"title" gorm:"size:255;not null"`
	Description              string          `json:"description" gorm:"type:text"`
	Category                 string          `json:"category" gorm:"size:100;index"`
	Budget                   decimal.Decimal `json:"budget" gorm:"type:decimal(14,2);not null;default:0"`
	Footfall                 int             `json:"footfall" gorm:"not null;default:0"`
	EventDate                time.Time       `json:"event_date"`
	Venue                    string          `json:"venue" gorm:"size:255"`
	Status                   ProposalStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending_category';index"`
	CategoryReviewerComments *string         `json:"category_reviewer_comments" gorm:"type:text"`
	BudgetReviewerComments   *string         `json:"budget_reviewer_comments" gorm:"type:text"`
	MLFeasibilityScore       float64         `json:"ml_feasibility_score" gorm:"not null;default:0"`
	CreatedAt                time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt                time.Time       `json:"updated_at"`

	// Relations
	Student User `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProposalFilter constrains a proposal listing. Zero fields do not filter.
type ProposalFilter struct {
	StudentID uuid.UUID
	Status    ProposalStatus
}
