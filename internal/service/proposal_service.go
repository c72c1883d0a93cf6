package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"eventflow/internal/auth"
	"eventflow/internal/cache"
	apperrors "eventflow/internal/errors"
	"eventflow/internal/metrics"
	"eventflow/internal/model"
	"eventflow/internal/oracle"
	"eventflow/internal/repository"
)

const proposalCacheTTL = 5 * time.Minute

// NewProposal is a student's submission.
type NewProposal struct {
	Title       string
	Description string
	Category    string
	Budget      decimal.Decimal
	Footfall    int
	EventDate   time.Time
	Venue       string
}

// ReviewResult reports an applied review.
type ReviewResult struct {
	ID           uuid.UUID
	NewStatus    model.ProposalStatus
	CommentField model.CommentField
}

// ProposalService handles proposal submission, listing and review.
type ProposalService interface {
	Create(ctx context.Context, identity *auth.Identity, in NewProposal) (*model.Proposal, bool, error)
	List(ctx context.Context, identity *auth.Identity) (ListScope, []model.Proposal, error)
	Get(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*model.Proposal, error)
	Review(ctx context.Context, identity *auth.Identity, id uuid.UUID, action ReviewAction, comments string) (*ReviewResult, error)
}

// proposalCache is the part of cache.Client the read path needs.
type proposalCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type proposalService struct {
	repo      repository.ProposalRepository
	scorer    oracle.Scorer
	cache     proposalCache
	sanitizer *TextSanitizer
	metrics   *metrics.Metrics
}

// NewProposalService creates a new proposal service.
func NewProposalService(
	repo repository.ProposalRepository,
	scorer oracle.Scorer,
	cache *cache.Client,
	m *metrics.Metrics,
) ProposalService {
	return &proposalService{
		repo:      repo,
		scorer:    scorer,
		cache:     cache,
		sanitizer: NewTextSanitizer(),
		metrics:   m,
	}
}

func (s *proposalService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("proposal:%s", id.String())
}

// Create stores a new proposal in pending_category. The oracle is asked once;
// a missing score is stored as 0 and never blocks creation. The bool result
// reports whether the oracle produced a score.
func (s *proposalService) Create(ctx context.Context, identity *auth.Identity, in NewProposal) (*model.Proposal, bool, error) {
	if err := CheckAction(identity, ActionCreate); err != nil {
		return nil, false, err
	}

	proposal := &model.Proposal{
		StudentID:   identity.ID,
		Title:       s.sanitizer.Clean(in.Title),
		Description: s.sanitizer.Clean(in.Description),
		Category:    s.sanitizer.Clean(in.Category),
		Budget:      in.Budget,
		Footfall:    in.Footfall,
		EventDate:   in.EventDate,
		Venue:       s.sanitizer.Clean(in.Venue),
		Status:      model.StatusPendingCategory,
	}
	if proposal.Title == "" || proposal.Description == "" || proposal.Category == "" || proposal.Venue == "" {
		return nil, false, apperrors.NewValidationError("Missing required fields.")
	}
	if !proposal.Budget.IsPositive() || proposal.Footfall < 0 || proposal.EventDate.IsZero() {
		return nil, false, apperrors.NewValidationError("Missing required fields.")
	}

	scored := false
	if score := s.scorer.Score(ctx, proposal.Category, proposal.Budget.InexactFloat64(), proposal.Footfall); score != nil {
		proposal.MLFeasibilityScore = *score
		scored = true
	}
	log.Printf("[ML Score] Proposal: %s, Score: %v", proposal.Title, proposal.MLFeasibilityScore)

	if err := s.repo.Create(ctx, proposal); err != nil {
		return nil, false, fmt.Errorf("create proposal: %w", err)
	}
	s.metrics.ObserveCreated()

	return proposal, scored, nil
}

// List returns the caller's role-scoped proposals, newest first.
func (s *proposalService) List(ctx context.Context, identity *auth.Identity) (ListScope, []model.Proposal, error) {
	scope, err := ListScopeFor(identity)
	if err != nil {
		return ListScope{}, nil, err
	}

	proposals, err := s.repo.List(ctx, scope.Filter)
	if err != nil {
		return ListScope{}, nil, fmt.Errorf("list proposals: %w", err)
	}
	return scope, proposals, nil
}

// Get returns one proposal if the caller may view it.
func (s *proposalService) Get(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*model.Proposal, error) {
	proposal, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckView(identity, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// find reads through the cache. Only approved or rejected proposals are
// stored: their row never changes again, so an entry cannot go stale while a
// review is being written.
func (s *proposalService) find(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Proposal
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	proposal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("proposal %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}

	if !proposal.Status.Terminal() {
		return proposal, nil
	}
	if payload, err := json.Marshal(proposal); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, proposalCacheTTL)
	}
	return proposal, nil
}

// Review applies a category or budget review. The status read here only
// feeds diagnostics; the write is guarded on the expected status, so two
// reviewers racing on one proposal produce exactly one transition.
func (s *proposalService) Review(ctx context.Context, identity *auth.Identity, id uuid.UUID, action ReviewAction, comments string) (*ReviewResult, error) {
	comments = s.sanitizer.Clean(comments)
	if err := ValidateReviewInput(action, comments); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("proposal %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}

	transition, err := ApplyReview(current.Status, identity.Role, action, comments)
	if err != nil {
		var phaseErr *apperrors.InvalidPhaseError
		if errors.As(err, &phaseErr) {
			s.metrics.ObservePhaseConflict(PhaseName(identity.Role))
		}
		return nil, err
	}

	applied, err := s.repo.CompareAndSetStatus(ctx, repository.StatusChange{
		ID:           id,
		From:         transition.From,
		To:           transition.To,
		CommentField: transition.CommentField,
		Comments:     comments,
	})
	if err != nil {
		return nil, fmt.Errorf("update proposal status: %w", err)
	}

	if !applied {
		return nil, s.lostRace(ctx, id, identity.Role)
	}

	s.metrics.ObserveTransition(string(transition.From), string(transition.To))
	log.Printf("proposal %s: %s -> %s by %s", id, transition.From, transition.To, identity.ID)

	return &ReviewResult{ID: id, NewStatus: transition.To, CommentField: transition.CommentField}, nil
}

// lostRace explains a guarded update that matched no row.
func (s *proposalService) lostRace(ctx context.Context, id uuid.UUID, role model.Role) error {
	latest, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("proposal %s: %w", id, apperrors.ErrNotFound)
		}
		return fmt.Errorf("find proposal: %w", err)
	}
	s.metrics.ObservePhaseConflict(PhaseName(role))
	return &apperrors.InvalidPhaseError{CurrentStatus: string(latest.Status)}
}
