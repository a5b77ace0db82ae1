package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusbook/internal/database"
	"campusbook/internal/domain"
	"campusbook/internal/events"
	"campusbook/internal/metrics"
	"campusbook/internal/models"
	"campusbook/internal/workflow"

	"github.com/rs/zerolog"
)

// События жизненного цикла брони. Имена уходят в метрики и журнал переходов.
const (
	EventLecturerApprove = "lecturer_approve"
	EventLecturerReject  = "lecturer_reject"
	EventAdminApprove    = "admin_approve"
	EventAdminReject     = "admin_reject"
	EventCancel          = "cancel"
	EventStart           = "start"
	EventComplete        = "complete"
)

// NewBookingMachine строит граф статусов брони.
// Переходы start и complete без ролей — их применяет только фоновый проход.
func NewBookingMachine() *workflow.Machine {
	return workflow.New([]workflow.Transition{
		{From: models.StatusPendingLecturerApproval, Event: EventLecturerApprove, To: models.StatusPendingAdminApproval, Roles: []string{models.RoleLecturer}},
		{From: models.StatusPendingLecturerApproval, Event: EventLecturerReject, To: models.StatusRejected, Roles: []string{models.RoleLecturer}},
		{From: models.StatusPendingAdminApproval, Event: EventAdminApprove, To: models.StatusApproved, Roles: []string{models.RoleAdmin}},
		{From: models.StatusPendingAdminApproval, Event: EventAdminReject, To: models.StatusRejected, Roles: []string{models.RoleAdmin}},
		{From: models.StatusPendingLecturerApproval, Event: EventCancel, To: models.StatusCancelled, Roles: []string{models.RoleStudent, models.RoleLecturer, models.RoleAdmin}},
		{From: models.StatusPendingAdminApproval, Event: EventCancel, To: models.StatusCancelled, Roles: []string{models.RoleStudent, models.RoleLecturer, models.RoleAdmin}},
		{From: models.StatusApproved, Event: EventCancel, To: models.StatusCancelled, Roles: []string{models.RoleStudent, models.RoleLecturer, models.RoleAdmin}},
		{From: models.StatusApproved, Event: EventStart, To: models.StatusInUse},
		{From: models.StatusInUse, Event: EventComplete, To: models.StatusCompleted},
	}, models.StatusRejected, models.StatusCancelled, models.StatusCompleted)
}

type BookingService struct {
	repo           domain.BookingRepository
	ref            domain.ReferenceStore
	users          domain.UserDirectory
	availability   *AvailabilityService
	machine        *workflow.Machine
	eventBus       domain.EventPublisher
	notifier       domain.Notifier
	maxAdvanceDays int
	logger         *zerolog.Logger
}

func NewBookingService(
	repo domain.BookingRepository,
	ref domain.ReferenceStore,
	users domain.UserDirectory,
	availability *AvailabilityService,
	eventBus domain.EventPublisher,
	notifier domain.Notifier,
	maxAdvanceDays int,
	logger *zerolog.Logger,
) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 90
	}
	return &BookingService{
		repo:           repo,
		ref:            ref,
		users:          users,
		availability:   availability,
		machine:        NewBookingMachine(),
		eventBus:       eventBus,
		notifier:       notifier,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}
}

// ValidateBookingDate отсекает прошлое и выход за окно планирования.
func (s *BookingService) ValidateBookingDate(date time.Time, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return ErrPastDate
	}
	if date.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return fmt.Errorf("%w: window is %d days", ErrDateTooFar, s.maxAdvanceDays)
	}
	return nil
}

// CreateBooking проводит бронь через проверку доступности и вставляет её
// с транзакционной перепроверкой пересечений. Начальный статус зависит от
// роли автора: студент идёт через преподавателя, преподаватель и
// администратор — сразу в очередь администратора.
func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := s.ValidateBookingDate(booking.Date, time.Now()); err != nil {
		return err
	}

	user, err := s.users.GetUser(ctx, booking.UserID)
	if err != nil {
		return err
	}

	switch user.Role {
	case models.RoleStudent:
		if _, lerr := s.lecturerByContact(ctx, booking.LecturerContact); lerr != nil {
			return lerr
		}
		booking.Status = models.StatusPendingLecturerApproval
	case models.RoleLecturer, models.RoleAdmin:
		booking.LecturerContact = ""
		booking.Status = models.StatusPendingAdminApproval
	default:
		return fmt.Errorf("%w: unknown role %q", ErrValidation, user.Role)
	}

	if err := s.availability.CheckAvailability(ctx, booking.FacilityID, booking.Date, booking.StartTime, booking.EndTime); err != nil {
		return err
	}

	facility, err := s.ref.GetFacility(ctx, booking.FacilityID)
	if err != nil {
		return err
	}
	campus, err := s.availability.Campus(ctx, facility.CampusID)
	if err != nil {
		return err
	}

	booking.UserName = user.Name
	booking.FacilityName = facility.Name

	if err := s.repo.CreateBooking(ctx, booking, campus.ID, campus.Code); err != nil {
		if errors.Is(err, database.ErrSlotConflict) {
			metrics.IncConflict("slot_conflict")
		}
		return err
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("code", booking.Code).
		Str("status", booking.Status).
		Int64("user_id", booking.UserID).
		Msg("booking created")

	s.publishBookingEvent(events.EventBookingCreated, booking, user.Role, user.ID)
	s.enqueueNotify(ctx, booking.UserID, models.NotifyBookingCreated, booking)

	switch booking.Status {
	case models.StatusPendingLecturerApproval:
		if lecturer, lerr := s.users.GetUserByContact(ctx, booking.LecturerContact); lerr == nil {
			s.enqueueNotify(ctx, lecturer.ID, models.NotifyLecturerApproval, booking)
		}
	case models.StatusPendingAdminApproval:
		s.notifyAdmins(ctx, models.NotifyAdminApproval, booking)
	}

	return nil
}

func (s *BookingService) lecturerByContact(ctx context.Context, contact string) (*models.User, error) {
	if contact == "" {
		return nil, fmt.Errorf("%w: student booking requires a lecturer contact", ErrValidation)
	}
	lecturer, err := s.users.GetUserByContact(ctx, contact)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: no lecturer with contact %q", ErrValidation, contact)
		}
		return nil, err
	}
	if !lecturer.IsLecturer() {
		return nil, fmt.Errorf("%w: contact %q does not belong to a lecturer", ErrValidation, contact)
	}
	return lecturer, nil
}

// LecturerApprove переводит бронь студента на этап администратора.
// Одобрить может только преподаватель, указанный в самой брони.
func (s *BookingService) LecturerApprove(ctx context.Context, bookingID, actorID int64) error {
	return s.lecturerDecision(ctx, bookingID, actorID, EventLecturerApprove)
}

// LecturerReject отклоняет бронь студента на этапе преподавателя.
func (s *BookingService) LecturerReject(ctx context.Context, bookingID, actorID int64) error {
	return s.lecturerDecision(ctx, bookingID, actorID, EventLecturerReject)
}

func (s *BookingService) lecturerDecision(ctx context.Context, bookingID, actorID int64, event string) error {
	booking, actor, err := s.loadBookingActor(ctx, bookingID, actorID)
	if err != nil {
		return err
	}

	next, err := s.machine.Next(booking.Status, event, actor.Role)
	if err != nil {
		return err
	}
	if actor.Contact != booking.LecturerContact {
		return fmt.Errorf("%w: booking is assigned to a different lecturer", workflow.ErrNotAuthorized)
	}

	if err := s.applyTransition(ctx, booking, next, event, actor); err != nil {
		return err
	}

	switch next {
	case models.StatusPendingAdminApproval:
		s.publishBookingEvent(events.EventBookingLecturerApproved, booking, actor.Role, actor.ID)
		s.notifyAdmins(ctx, models.NotifyAdminApproval, booking)
	case models.StatusRejected:
		s.publishBookingEvent(events.EventBookingRejected, booking, actor.Role, actor.ID)
		s.enqueueNotify(ctx, booking.UserID, models.NotifyBookingRejected, booking)
	}
	return nil
}

// AdminApprove утверждает бронь.
func (s *BookingService) AdminApprove(ctx context.Context, bookingID, actorID int64) error {
	return s.adminDecision(ctx, bookingID, actorID, EventAdminApprove)
}

// AdminReject отклоняет бронь на этапе администратора.
func (s *BookingService) AdminReject(ctx context.Context, bookingID, actorID int64) error {
	return s.adminDecision(ctx, bookingID, actorID, EventAdminReject)
}

func (s *BookingService) adminDecision(ctx context.Context, bookingID, actorID int64, event string) error {
	booking, actor, err := s.loadBookingActor(ctx, bookingID, actorID)
	if err != nil {
		return err
	}

	next, err := s.machine.Next(booking.Status, event, actor.Role)
	if err != nil {
		return err
	}

	if err := s.applyTransition(ctx, booking, next, event, actor); err != nil {
		return err
	}

	switch next {
	case models.StatusApproved:
		s.publishBookingEvent(events.EventBookingApproved, booking, actor.Role, actor.ID)
		s.enqueueNotify(ctx, booking.UserID, models.NotifyBookingApproved, booking)
	case models.StatusRejected:
		s.publishBookingEvent(events.EventBookingRejected, booking, actor.Role, actor.ID)
		s.enqueueNotify(ctx, booking.UserID, models.NotifyBookingRejected, booking)
	}
	return nil
}

// CancelBooking снимает бронь до начала слота. Разрешено владельцу и
// администратору; начатую бронь отменить нельзя.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID int64) error {
	booking, actor, err := s.loadBookingActor(ctx, bookingID, actorID)
	if err != nil {
		return err
	}

	if actor.ID != booking.UserID && !actor.IsAdmin() {
		return fmt.Errorf("%w: only the owner or an admin can cancel", workflow.ErrNotAuthorized)
	}

	next, err := s.machine.Next(booking.Status, EventCancel, actor.Role)
	if err != nil {
		return err
	}

	if booking.StartsBy(time.Now()) {
		return fmt.Errorf("%w: booking slot has already started", workflow.ErrInvalidTransition)
	}

	if err := s.applyTransition(ctx, booking, next, EventCancel, actor); err != nil {
		return err
	}

	s.publishBookingEvent(events.EventBookingCancelled, booking, actor.Role, actor.ID)
	s.enqueueNotify(ctx, booking.UserID, models.NotifyBookingCancelled, booking)
	return nil
}

// AdvanceTimeBasedTransitions — фоновый проход: Approved с наступившим началом
// переходят в InUse, InUse с истёкшим концом — в Completed. Идемпотентно.
func (s *BookingService) AdvanceTimeBasedTransitions(ctx context.Context, now time.Time) error {
	started, err := s.repo.AdvanceApprovedToInUse(ctx, now)
	if err != nil {
		return fmt.Errorf("advance approved to in-use: %w", err)
	}
	completed, err := s.repo.AdvanceInUseToCompleted(ctx, now)
	if err != nil {
		return fmt.Errorf("advance in-use to completed: %w", err)
	}

	if started > 0 {
		metrics.AddTransitions(EventStart, float64(started))
	}
	if completed > 0 {
		metrics.AddTransitions(EventComplete, float64(completed))
	}
	if started > 0 || completed > 0 {
		s.logger.Info().
			Int64("started", started).
			Int64("completed", completed).
			Time("now", now).
			Msg("time-based booking sweep")
	}
	return nil
}

// CheckAvailability делегирует проверку слота без резервирования.
func (s *BookingService) CheckAvailability(ctx context.Context, facilityID int64, date time.Time, start, end string) error {
	return s.availability.CheckAvailability(ctx, facilityID, date, start, end)
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingByCode(ctx context.Context, code string) (*models.Booking, error) {
	return s.repo.GetBookingByCode(ctx, code)
}

func (s *BookingService) ListFacilityDay(ctx context.Context, facilityID int64, date time.Time) ([]*models.Booking, error) {
	return s.repo.GetBookingsByFacilityDate(ctx, facilityID, date)
}

func (s *BookingService) ListRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDateRange(ctx, start, end)
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.repo.GetUserBookings(ctx, userID)
}

func (s *BookingService) loadBookingActor(ctx context.Context, bookingID, actorID int64) (*models.Booking, *models.User, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	actor, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	return booking, actor, nil
}

// applyTransition пишет новый статус через CAS по старому. Проигрыш гонки
// (кто-то успел изменить статус раньше) отдаётся как невалидный переход:
// для вызывающего состояние уже не то, из которого он исходил.
func (s *BookingService) applyTransition(ctx context.Context, booking *models.Booking, next, event string, actor *models.User) error {
	err := s.repo.UpdateBookingStatusIfCurrent(ctx, booking.ID, booking.Status, next, actor.ID)
	if err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			return fmt.Errorf("%w: booking %d changed concurrently", workflow.ErrInvalidTransition, booking.ID)
		}
		return err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("from", booking.Status).
		Str("to", next).
		Str("event", event).
		Int64("actor_id", actor.ID).
		Msg("booking transition")

	booking.Status = next
	metrics.IncTransition(event)
	return nil
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, actorRole string, actorID int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:    booking.ID,
		Code:         booking.Code,
		FacilityID:   booking.FacilityID,
		FacilityName: booking.FacilityName,
		UserID:       booking.UserID,
		UserName:     booking.UserName,
		Status:       booking.Status,
		Date:         booking.Date,
		StartTime:    booking.StartTime,
		EndTime:      booking.EndTime,
		ActorRole:    actorRole,
		ActorID:      actorID,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("publish event error")
	}
}

func (s *BookingService) enqueueNotify(ctx context.Context, userID int64, notifyType string, booking *models.Booking) {
	if s.notifier == nil {
		return
	}
	// Сбой постановки в очередь не откатывает операцию.
	_ = s.notifier.Enqueue(ctx, userID, notifyType, booking)
}

func (s *BookingService) notifyAdmins(ctx context.Context, notifyType string, booking *models.Booking) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list admins for notification error")
		return
	}
	for _, admin := range admins {
		s.enqueueNotify(ctx, admin.ID, notifyType, booking)
	}
}
