package domain

import (
	"context"
	"time"

	"campusbook/internal/models"
)

// BookingRepository — хранилище броней. Create и Update держат транзакционные
// гарантии: пересечение слотов перепроверяется внутри транзакции вставки,
// смена статуса — compare-and-swap по текущему статусу.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking, campusID int64, campusCode string) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByCode(ctx context.Context, code string) (*models.Booking, error)
	CountOverlapping(ctx context.Context, facilityID int64, date time.Time, start, end string) (int, error)
	UpdateBookingStatusIfCurrent(ctx context.Context, id int64, fromStatus, toStatus string, actorID int64) error
	GetBookingsByFacilityDate(ctx context.Context, facilityID int64, date time.Time) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	AdvanceApprovedToInUse(ctx context.Context, now time.Time) (int64, error)
	AdvanceInUseToCompleted(ctx context.Context, now time.Time) (int64, error)
}

type ChangeRequestRepository interface {
	CreateChangeRequest(ctx context.Context, req *models.CampusChangeRequest) error
	GetChangeRequest(ctx context.Context, id int64) (*models.CampusChangeRequest, error)
	HasPendingChangeRequest(ctx context.Context, userID int64) (bool, error)
	ReviewChangeRequestIfPending(ctx context.Context, id int64, reviewerID int64, status, comment string) error
	ListPendingChangeRequests(ctx context.Context) ([]*models.CampusChangeRequest, error)
}

type IssueRepository interface {
	CreateIssue(ctx context.Context, issue *models.FacilityIssueReport) error
	GetIssue(ctx context.Context, id int64) (*models.FacilityIssueReport, error)
	UpdateIssueStatusIfCurrent(ctx context.Context, id int64, fromStatus, toStatus string, adminResponse string, newFacilityID int64) error
	ListIssuesByStatus(ctx context.Context, status string) ([]*models.FacilityIssueReport, error)
}

// ReferenceStore — справочные данные, только чтение с точки зрения ядра.
type ReferenceStore interface {
	GetFacility(ctx context.Context, id int64) (*models.Facility, error)
	GetCampus(ctx context.Context, id int64) (*models.Campus, error)
	ListFacilities(ctx context.Context) ([]*models.Facility, error)
	ListCampuses(ctx context.Context) ([]*models.Campus, error)
	ListHolidays(ctx context.Context) ([]*models.Holiday, error)
}

// UserDirectory — внешний каталог пользователей.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByContact(ctx context.Context, contact string) (*models.User, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
	UpdateUserCampus(ctx context.Context, id int64, campusID int64) error
}

// NotificationOutbox — outbox-таблица уведомлений: запись фиксируется вместе с
// породившей операцией, доставкой занимается воркер.
type NotificationOutbox interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetPendingNotifications(ctx context.Context, limit int) ([]*models.Notification, error)
	UpdateNotificationStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// NotificationSender доставляет уведомление внешнему диспетчеру.
type NotificationSender interface {
	Send(ctx context.Context, n *models.Notification) error
}

// Notifier ставит уведомление в очередь; сбой не должен валить вызвавшую операцию.
type Notifier interface {
	Enqueue(ctx context.Context, userID int64, notifyType string, booking *models.Booking) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReferenceCache кэширует справочники на горячем пути проверки доступности.
type ReferenceCache interface {
	GetCampus(ctx context.Context, id int64) (*models.Campus, error)
	SetCampus(ctx context.Context, campus *models.Campus) error
	GetHolidays(ctx context.Context) ([]*models.Holiday, error)
	SetHolidays(ctx context.Context, holidays []*models.Holiday) error
	Invalidate(ctx context.Context) error
}
