package service

import (
	"context"
	"errors"
	"fmt"

	"campusbook/internal/database"
	"campusbook/internal/domain"
	"campusbook/internal/events"
	"campusbook/internal/metrics"
	"campusbook/internal/models"
	"campusbook/internal/workflow"

	"github.com/rs/zerolog"
)

const (
	EventRequestApprove = "request_approve"
	EventRequestReject  = "request_reject"
)

// NewChangeRequestMachine строит граф статусов заявки на смену кампуса.
func NewChangeRequestMachine() *workflow.Machine {
	return workflow.New([]workflow.Transition{
		{From: models.RequestStatusPending, Event: EventRequestApprove, To: models.RequestStatusApproved, Roles: []string{models.RoleAdmin}},
		{From: models.RequestStatusPending, Event: EventRequestReject, To: models.RequestStatusRejected, Roles: []string{models.RoleAdmin}},
	}, models.RequestStatusApproved, models.RequestStatusRejected)
}

// CampusChangeService ведёт заявки на смену кампуса: одна активная заявка
// на пользователя, решение принимает администратор, одобрение переносит
// пользователя в новый кампус.
type CampusChangeService struct {
	repo     domain.ChangeRequestRepository
	ref      domain.ReferenceStore
	users    domain.UserDirectory
	machine  *workflow.Machine
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewCampusChangeService(
	repo domain.ChangeRequestRepository,
	ref domain.ReferenceStore,
	users domain.UserDirectory,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *CampusChangeService {
	return &CampusChangeService{
		repo:     repo,
		ref:      ref,
		users:    users,
		machine:  NewChangeRequestMachine(),
		eventBus: eventBus,
		logger:   logger,
	}
}

// Submit создаёт заявку. Повторная подача при живой Pending-заявке
// отбивается на уникальном индексе хранилища.
func (s *CampusChangeService) Submit(ctx context.Context, userID, toCampusID int64, reason string) (*models.CampusChangeRequest, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	campus, err := s.ref.GetCampus(ctx, toCampusID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: campus %d does not exist", ErrValidation, toCampusID)
		}
		return nil, err
	}
	if user.CampusID == campus.ID {
		return nil, fmt.Errorf("%w: user is already assigned to campus %s", ErrValidation, campus.Code)
	}

	req := &models.CampusChangeRequest{
		UserID:       userID,
		FromCampusID: user.CampusID,
		ToCampusID:   toCampusID,
		Reason:       reason,
		Status:       models.RequestStatusPending,
	}
	if err := s.repo.CreateChangeRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("request_id", req.ID).
		Int64("user_id", userID).
		Int64("to_campus_id", toCampusID).
		Msg("campus change requested")

	s.publishRequestEvent(events.EventChangeRequested, req, 0)
	return req, nil
}

// Review выносит решение по заявке. Проигрыш гонки двух ревьюеров отдаётся
// как невалидный переход.
func (s *CampusChangeService) Review(ctx context.Context, requestID, reviewerID int64, approve bool, comment string) error {
	req, err := s.repo.GetChangeRequest(ctx, requestID)
	if err != nil {
		return err
	}
	reviewer, err := s.users.GetUser(ctx, reviewerID)
	if err != nil {
		return err
	}

	event := EventRequestReject
	if approve {
		event = EventRequestApprove
	}

	next, err := s.machine.Next(req.Status, event, reviewer.Role)
	if err != nil {
		return err
	}

	// Сначала перенос, потом закрытие заявки: если перенос не удался,
	// заявка остаётся Pending и ревью можно повторить.
	if next == models.RequestStatusApproved {
		if err := s.users.UpdateUserCampus(ctx, req.UserID, req.ToCampusID); err != nil {
			s.logger.Error().Err(err).
				Int64("request_id", requestID).
				Int64("user_id", req.UserID).
				Msg("campus reassignment failed, request stays pending")
			return err
		}
	}

	if err := s.repo.ReviewChangeRequestIfPending(ctx, requestID, reviewerID, next, comment); err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			if next == models.RequestStatusApproved {
				s.revertIfRejected(ctx, requestID, req)
			}
			return fmt.Errorf("%w: request %d already reviewed", workflow.ErrInvalidTransition, requestID)
		}
		return err
	}
	metrics.IncTransition(event)

	s.logger.Info().
		Int64("request_id", requestID).
		Str("status", next).
		Int64("reviewer_id", reviewerID).
		Msg("campus change reviewed")

	req.Status = next
	req.ReviewedBy = reviewerID
	req.ReviewComment = comment
	s.publishRequestEvent(events.EventChangeReviewed, req, reviewerID)
	return nil
}

// revertIfRejected возвращает пользователя в исходный кампус, когда гонку
// выиграл отказ. Если выиграло другое одобрение, перенос оставляем — цель
// у обоих ревьюеров одна.
func (s *CampusChangeService) revertIfRejected(ctx context.Context, requestID int64, req *models.CampusChangeRequest) {
	current, err := s.repo.GetChangeRequest(ctx, requestID)
	if err != nil || current.Status != models.RequestStatusRejected {
		return
	}
	if err := s.users.UpdateUserCampus(ctx, req.UserID, req.FromCampusID); err != nil {
		s.logger.Error().Err(err).
			Int64("request_id", requestID).
			Int64("user_id", req.UserID).
			Msg("campus move rollback failed")
	}
}

func (s *CampusChangeService) GetRequest(ctx context.Context, id int64) (*models.CampusChangeRequest, error) {
	return s.repo.GetChangeRequest(ctx, id)
}

func (s *CampusChangeService) ListPending(ctx context.Context) ([]*models.CampusChangeRequest, error) {
	return s.repo.ListPendingChangeRequests(ctx)
}

func (s *CampusChangeService) publishRequestEvent(eventType string, req *models.CampusChangeRequest, actorID int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.RequestEventPayload{
		RequestID: req.ID,
		UserID:    req.UserID,
		Status:    req.Status,
		ActorID:   actorID,
		Comment:   req.ReviewComment,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("publish event error")
	}
}
