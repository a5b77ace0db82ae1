package service

import (
	"context"
	"errors"
	"testing"

	"campusbook/internal/database"
	"campusbook/internal/models"
	"campusbook/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type changeFixture struct {
	svc   *CampusChangeService
	repo  *mockChangeRequestRepo
	ref   *mockReferenceStore
	users *mockUserDirectory
	bus   *recordingPublisher
}

func newChangeFixture(t *testing.T) *changeFixture {
	t.Helper()
	repo := new(mockChangeRequestRepo)
	ref := new(mockReferenceStore)
	users := new(mockUserDirectory)
	bus := &recordingPublisher{}
	svc := NewCampusChangeService(repo, ref, users, bus, testLogger())
	return &changeFixture{svc: svc, repo: repo, ref: ref, users: users, bus: bus}
}

func TestSubmitChangeRequest(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	f.users.On("GetUser", ctx, int64(1)).Return(testStudent, nil)
	f.ref.On("GetCampus", ctx, int64(2)).Return(&models.Campus{ID: 2, Code: "C2"}, nil)
	f.repo.On("CreateChangeRequest", ctx, mock.AnythingOfType("*models.CampusChangeRequest")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.CampusChangeRequest).ID = 5
		}).Return(nil).Once()

	req, err := f.svc.Submit(ctx, 1, 2, "closer to dorm")
	require.NoError(t, err)
	assert.Equal(t, int64(5), req.ID)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, int64(1), req.FromCampusID)
	assert.Equal(t, int64(2), req.ToCampusID)
	assert.Contains(t, f.bus.published(), "campus_change_requested")
}

func TestSubmitChangeRequestSameCampus(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	f.users.On("GetUser", ctx, int64(1)).Return(testStudent, nil)
	f.ref.On("GetCampus", ctx, int64(1)).Return(&models.Campus{ID: 1, Code: "C1"}, nil)

	_, err := f.svc.Submit(ctx, 1, 1, "no reason")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitChangeRequestUnknownCampus(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	f.users.On("GetUser", ctx, int64(1)).Return(testStudent, nil)
	f.ref.On("GetCampus", ctx, int64(99)).Return(nil, database.ErrNotFound)

	_, err := f.svc.Submit(ctx, 1, 99, "typo")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitChangeRequestDuplicatePending(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	f.users.On("GetUser", ctx, int64(1)).Return(testStudent, nil)
	f.ref.On("GetCampus", ctx, int64(2)).Return(&models.Campus{ID: 2, Code: "C2"}, nil)
	f.repo.On("CreateChangeRequest", ctx, mock.Anything).Return(database.ErrDuplicateRequest).Once()

	_, err := f.svc.Submit(ctx, 1, 2, "again")
	assert.ErrorIs(t, err, database.ErrDuplicateRequest)
}

func TestReviewApproveMovesUser(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	req := &models.CampusChangeRequest{ID: 5, UserID: 1, FromCampusID: 1, ToCampusID: 2, Status: models.RequestStatusPending}
	f.repo.On("GetChangeRequest", ctx, int64(5)).Return(req, nil)
	f.users.On("GetUser", ctx, int64(3)).Return(testAdmin, nil)
	f.repo.On("ReviewChangeRequestIfPending", ctx, int64(5), int64(3), models.RequestStatusApproved, "ok").Return(nil).Once()
	f.users.On("UpdateUserCampus", ctx, int64(1), int64(2)).Return(nil).Once()

	require.NoError(t, f.svc.Review(ctx, 5, 3, true, "ok"))
	assert.Contains(t, f.bus.published(), "campus_change_reviewed")
	f.users.AssertExpectations(t)
}

func TestReviewRejectKeepsCampus(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	req := &models.CampusChangeRequest{ID: 5, UserID: 1, ToCampusID: 2, Status: models.RequestStatusPending}
	f.repo.On("GetChangeRequest", ctx, int64(5)).Return(req, nil)
	f.users.On("GetUser", ctx, int64(3)).Return(testAdmin, nil)
	f.repo.On("ReviewChangeRequestIfPending", ctx, int64(5), int64(3), models.RequestStatusRejected, "denied").Return(nil).Once()

	require.NoError(t, f.svc.Review(ctx, 5, 3, false, "denied"))
	f.users.AssertNotCalled(t, "UpdateUserCampus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewByNonAdminDenied(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	req := &models.CampusChangeRequest{ID: 5, UserID: 1, ToCampusID: 2, Status: models.RequestStatusPending}
	f.repo.On("GetChangeRequest", ctx, int64(5)).Return(req, nil)
	f.users.On("GetUser", ctx, int64(2)).Return(testLecturer, nil)

	err := f.svc.Review(ctx, 5, 2, true, "")
	assert.ErrorIs(t, err, workflow.ErrNotAuthorized)
}

func TestReviewAlreadyReviewed(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	req := &models.CampusChangeRequest{ID: 5, UserID: 1, ToCampusID: 2, Status: models.RequestStatusApproved}
	f.repo.On("GetChangeRequest", ctx, int64(5)).Return(req, nil)
	f.users.On("GetUser", ctx, int64(3)).Return(testAdmin, nil)

	err := f.svc.Review(ctx, 5, 3, true, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestReviewApproveMoveFailsStaysPending(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	req := &models.CampusChangeRequest{ID: 5, UserID: 1, FromCampusID: 1, ToCampusID: 2, Status: models.RequestStatusPending}
	f.repo.On("GetChangeRequest", ctx, int64(5)).Return(req, nil)
	f.users.On("GetUser", ctx, int64(3)).Return(testAdmin, nil)
	f.users.On("UpdateUserCampus", ctx, int64(1), int64(2)).Return(errors.New("directory down")).Once()

	// Перенос не удался — заявка не закрывается и остаётся доступной для ревью.
	err := f.svc.Review(ctx, 5, 3, true, "ok")
	require.Error(t, err)
	f.repo.AssertNotCalled(t, "ReviewChangeRequestIfPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewLosesRaceToApprove(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	req := &models.CampusChangeRequest{ID: 5, UserID: 1, FromCampusID: 1, ToCampusID: 2, Status: models.RequestStatusPending}
	won := &models.CampusChangeRequest{ID: 5, UserID: 1, FromCampusID: 1, ToCampusID: 2, Status: models.RequestStatusApproved}
	f.repo.On("GetChangeRequest", ctx, int64(5)).Return(req, nil).Once()
	f.users.On("GetUser", ctx, int64(3)).Return(testAdmin, nil)
	f.users.On("UpdateUserCampus", ctx, int64(1), int64(2)).Return(nil).Once()
	f.repo.On("ReviewChangeRequestIfPending", ctx, int64(5), int64(3), models.RequestStatusApproved, "").
		Return(database.ErrConcurrentModification).Once()
	f.repo.On("GetChangeRequest", ctx, int64(5)).Return(won, nil).Once()

	// Гонку выиграло другое одобрение — перенос не откатывается.
	err := f.svc.Review(ctx, 5, 3, true, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	f.users.AssertNotCalled(t, "UpdateUserCampus", mock.Anything, int64(1), int64(1))
}

func TestReviewLosesRaceToRejectRevertsMove(t *testing.T) {
	f := newChangeFixture(t)
	ctx := context.Background()

	req := &models.CampusChangeRequest{ID: 5, UserID: 1, FromCampusID: 1, ToCampusID: 2, Status: models.RequestStatusPending}
	rejected := &models.CampusChangeRequest{ID: 5, UserID: 1, FromCampusID: 1, ToCampusID: 2, Status: models.RequestStatusRejected}
	f.repo.On("GetChangeRequest", ctx, int64(5)).Return(req, nil).Once()
	f.users.On("GetUser", ctx, int64(3)).Return(testAdmin, nil)
	f.users.On("UpdateUserCampus", ctx, int64(1), int64(2)).Return(nil).Once()
	f.repo.On("ReviewChangeRequestIfPending", ctx, int64(5), int64(3), models.RequestStatusApproved, "").
		Return(database.ErrConcurrentModification).Once()
	f.repo.On("GetChangeRequest", ctx, int64(5)).Return(rejected, nil).Once()
	f.users.On("UpdateUserCampus", ctx, int64(1), int64(1)).Return(nil).Once()

	// Выигравший отказ означает, что перенос надо вернуть обратно.
	err := f.svc.Review(ctx, 5, 3, true, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	f.users.AssertExpectations(t)
}
