package models

import "time"

const (
	NotifyStatusPending = "pending"
	NotifyStatusRetry   = "retry"
	NotifyStatusSent    = "sent"
	NotifyStatusFailed  = "failed"
)

const (
	NotifyBookingCreated   = "booking_created"
	NotifyLecturerApproval = "lecturer_approval_needed"
	NotifyAdminApproval    = "admin_approval_needed"
	NotifyBookingApproved  = "booking_approved"
	NotifyBookingRejected  = "booking_rejected"
	NotifyBookingCancelled = "booking_cancelled"
	NotifyIssueReported    = "issue_reported"
)

// Notification — строка outbox-таблицы: доставка идет отдельным воркером,
// сбой доставки не откатывает породившую транзакцию.
type Notification struct {
	ID          int64      `json:"id"`
	UID         string     `json:"uid"` // uuid для идемпотентности на стороне получателя
	UserID      int64      `json:"user_id"`
	Type        string     `json:"type"`
	Payload     string     `json:"payload"` // JSON NotificationPayload
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

// NotificationPayload — схема, которую ожидает внешний диспетчер уведомлений.
type NotificationPayload struct {
	Type         string `json:"type"`
	BookingID    int64  `json:"bookingId"`
	UserName     string `json:"userName"`
	FacilityName string `json:"facilityName"`
	BookingDate  string `json:"bookingDate"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}
