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
	EventIssueHandle  = "issue_handle"
	EventIssueResolve = "issue_resolve"
)

// NewIssueMachine строит граф статусов жалобы на помещение.
func NewIssueMachine() *workflow.Machine {
	return workflow.New([]workflow.Transition{
		{From: models.IssueStatusReported, Event: EventIssueHandle, To: models.IssueStatusHandled, Roles: []string{models.RoleAdmin}},
		{From: models.IssueStatusHandled, Event: EventIssueResolve, To: models.IssueStatusResolved, Roles: []string{models.RoleAdmin}},
	}, models.IssueStatusResolved)
}

// IssueService ведёт жалобы на помещения. Жалоба привязана к брони и может
// быть подана только её владельцем; обработка и закрытие — за администратором.
type IssueService struct {
	repo     domain.IssueRepository
	bookings domain.BookingRepository
	ref      domain.ReferenceStore
	users    domain.UserDirectory
	machine  *workflow.Machine
	eventBus domain.EventPublisher
	notifier domain.Notifier
	logger   *zerolog.Logger
}

func NewIssueService(
	repo domain.IssueRepository,
	bookings domain.BookingRepository,
	ref domain.ReferenceStore,
	users domain.UserDirectory,
	eventBus domain.EventPublisher,
	notifier domain.Notifier,
	logger *zerolog.Logger,
) *IssueService {
	return &IssueService{
		repo:     repo,
		bookings: bookings,
		ref:      ref,
		users:    users,
		machine:  NewIssueMachine(),
		eventBus: eventBus,
		notifier: notifier,
		logger:   logger,
	}
}

// ReportIssue регистрирует жалобу по брони от её владельца.
func (s *IssueService) ReportIssue(ctx context.Context, issue *models.FacilityIssueReport) error {
	if issue.Title == "" {
		return fmt.Errorf("%w: issue title is required", ErrValidation)
	}

	booking, err := s.bookings.GetBooking(ctx, issue.BookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: booking %d does not exist", ErrValidation, issue.BookingID)
		}
		return err
	}
	if booking.UserID != issue.ReporterID {
		return fmt.Errorf("%w: only the booking owner can report an issue", workflow.ErrNotAuthorized)
	}

	issue.Status = models.IssueStatusReported
	if err := s.repo.CreateIssue(ctx, issue); err != nil {
		return err
	}

	s.logger.Info().
		Int64("issue_id", issue.ID).
		Int64("booking_id", issue.BookingID).
		Str("severity", issue.Severity).
		Msg("facility issue reported")

	s.publishIssueEvent(events.EventIssueReported, issue, 0)
	s.notifyAdmins(ctx, booking)
	return nil
}

// HandleIssue фиксирует реакцию администратора. Замена помещения опциональна;
// если она указана, новое помещение должно существовать и быть доступным.
func (s *IssueService) HandleIssue(ctx context.Context, issueID, adminID int64, response string, newFacilityID int64) error {
	issue, admin, err := s.loadIssueActor(ctx, issueID, adminID)
	if err != nil {
		return err
	}

	next, err := s.machine.Next(issue.Status, EventIssueHandle, admin.Role)
	if err != nil {
		return err
	}

	if newFacilityID != 0 {
		facility, ferr := s.ref.GetFacility(ctx, newFacilityID)
		if ferr != nil {
			if errors.Is(ferr, database.ErrNotFound) {
				return fmt.Errorf("%w: replacement facility %d does not exist", ErrValidation, newFacilityID)
			}
			return ferr
		}
		if facility.Status != models.FacilityAvailable {
			return fmt.Errorf("%w: replacement facility %d is %s", ErrFacilityUnavailable, newFacilityID, facility.Status)
		}
	}

	if err := s.applyIssueTransition(ctx, issue, next, EventIssueHandle, response, newFacilityID); err != nil {
		return err
	}

	issue.AdminResponse = response
	issue.NewFacilityID = newFacilityID
	s.publishIssueEvent(events.EventIssueHandled, issue, adminID)
	return nil
}

// ResolveIssue закрывает обработанную жалобу.
func (s *IssueService) ResolveIssue(ctx context.Context, issueID, adminID int64) error {
	issue, admin, err := s.loadIssueActor(ctx, issueID, adminID)
	if err != nil {
		return err
	}

	next, err := s.machine.Next(issue.Status, EventIssueResolve, admin.Role)
	if err != nil {
		return err
	}

	if err := s.applyIssueTransition(ctx, issue, next, EventIssueResolve, "", 0); err != nil {
		return err
	}

	s.publishIssueEvent(events.EventIssueResolved, issue, adminID)
	return nil
}

func (s *IssueService) GetIssue(ctx context.Context, id int64) (*models.FacilityIssueReport, error) {
	return s.repo.GetIssue(ctx, id)
}

func (s *IssueService) ListByStatus(ctx context.Context, status string) ([]*models.FacilityIssueReport, error) {
	return s.repo.ListIssuesByStatus(ctx, status)
}

func (s *IssueService) loadIssueActor(ctx context.Context, issueID, actorID int64) (*models.FacilityIssueReport, *models.User, error) {
	issue, err := s.repo.GetIssue(ctx, issueID)
	if err != nil {
		return nil, nil, err
	}
	actor, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	return issue, actor, nil
}

func (s *IssueService) applyIssueTransition(ctx context.Context, issue *models.FacilityIssueReport, next, event, response string, newFacilityID int64) error {
	err := s.repo.UpdateIssueStatusIfCurrent(ctx, issue.ID, issue.Status, next, response, newFacilityID)
	if err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			return fmt.Errorf("%w: issue %d changed concurrently", workflow.ErrInvalidTransition, issue.ID)
		}
		return err
	}

	s.logger.Info().
		Int64("issue_id", issue.ID).
		Str("from", issue.Status).
		Str("to", next).
		Msg("issue transition")

	issue.Status = next
	metrics.IncTransition(event)
	return nil
}

func (s *IssueService) publishIssueEvent(eventType string, issue *models.FacilityIssueReport, actorID int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.RequestEventPayload{
		RequestID: issue.ID,
		UserID:    issue.ReporterID,
		Status:    issue.Status,
		ActorID:   actorID,
		Comment:   issue.AdminResponse,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("publish event error")
	}
}

func (s *IssueService) notifyAdmins(ctx context.Context, booking *models.Booking) {
	if s.notifier == nil {
		return
	}
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list admins for notification error")
		return
	}
	for _, admin := range admins {
		_ = s.notifier.Enqueue(ctx, admin.ID, models.NotifyIssueReported, booking)
	}
}
