package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"eventflow/internal/db"
	"eventflow/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.NewSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

func seedStudent(t *testing.T, gormDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x", Name: "Student", Role: model.RoleStudent, IsVerified: true}
	require.NoError(t, NewUserRepository(gormDB).Create(context.Background(), user))
	return user
}

func seedProposal(t *testing.T, repo ProposalRepository, studentID uuid.UUID, title string, status model.ProposalStatus) *model.Proposal {
	t.Helper()
	p := &model.Proposal{
		StudentID: studentID,
		Title:     title,
		Category:  "cultural",
		Budget:    decimal.NewFromInt(5000),
		Footfall:  200,
		EventDate: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		Venue:     "Main Hall",
		Status:    status,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestProposalRepository_CreateAndFind(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewProposalRepository(gormDB)
	student := seedStudent(t, gormDB, "a@example.com")

	created := seedProposal(t, repo, student.ID, "Spring Fest", model.StatusPendingCategory)
	assert.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spring Fest", found.Title)
	assert.Equal(t, model.StatusPendingCategory, found.Status)
	assert.True(t, decimal.NewFromInt(5000).Equal(found.Budget))
	assert.Nil(t, found.CategoryReviewerComments)
	assert.Nil(t, found.BudgetReviewerComments)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProposalRepository_ListFiltersAndOrder(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewProposalRepository(gormDB)
	a := seedStudent(t, gormDB, "a@example.com")
	b := seedStudent(t, gormDB, "b@example.com")

	first := seedProposal(t, repo, a.ID, "first", model.StatusPendingCategory)
	time.Sleep(5 * time.Millisecond)
	second := seedProposal(t, repo, a.ID, "second", model.StatusPendingBudget)
	time.Sleep(5 * time.Millisecond)
	seedProposal(t, repo, b.ID, "other", model.StatusPendingCategory)

	mine, err := repo.List(context.Background(), model.ProposalFilter{StudentID: a.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	queue, err := repo.List(context.Background(), model.ProposalFilter{Status: model.StatusPendingCategory})
	require.NoError(t, err)
	assert.Len(t, queue, 2)
	for _, p := range queue {
		assert.Equal(t, model.StatusPendingCategory, p.Status)
	}

	empty, err := repo.List(context.Background(), model.ProposalFilter{Status: model.StatusApproved})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestProposalRepository_CompareAndSetStatus(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewProposalRepository(gormDB)
	student := seedStudent(t, gormDB, "a@example.com")
	p := seedProposal(t, repo, student.ID, "fest", model.StatusPendingCategory)

	ok, err := repo.CompareAndSetStatus(context.Background(), StatusChange{
		ID: p.ID, From: model.StatusPendingCategory, To: model.StatusPendingBudget,
		CommentField: model.CategoryReviewerComments, Comments: "ok",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	// A stale guard matches nothing and writes nothing.
	ok, err = repo.CompareAndSetStatus(context.Background(), StatusChange{
		ID: p.ID, From: model.StatusPendingCategory, To: model.StatusRejected,
		CommentField: model.CategoryReviewerComments, Comments: "overwrite",
	})
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingBudget, found.Status)
	require.NotNil(t, found.CategoryReviewerComments)
	assert.Equal(t, "ok", *found.CategoryReviewerComments)
	assert.Nil(t, found.BudgetReviewerComments)
	assert.False(t, found.UpdatedAt.Before(found.CreatedAt))
}

func TestProposalRepository_CompareAndSetStatusConcurrent(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewProposalRepository(gormDB)
	student := seedStudent(t, gormDB, "a@example.com")
	p := seedProposal(t, repo, student.ID, "fest", model.StatusPendingCategory)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CompareAndSetStatus(context.Background(), StatusChange{
				ID: p.ID, From: model.StatusPendingCategory, To: model.StatusPendingBudget,
				CommentField: model.CategoryReviewerComments, Comments: "ok",
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
}

func TestProposalRepository_CascadeOnStudentDelete(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewProposalRepository(gormDB)
	student := seedStudent(t, gormDB, "a@example.com")
	p := seedProposal(t, repo, student.ID, "fest", model.StatusPendingCategory)

	require.NoError(t, gormDB.Delete(&model.User{}, "id = ?", student.ID).Error)

	_, err := repo.FindByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
