package models

import "time"

// CampusChangeRequest — заявка пользователя на смену кампуса.
// У пользователя может быть не больше одной заявки в статусе Pending.
type CampusChangeRequest struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	FromCampusID  int64      `json:"from_campus_id,omitempty"`
	ToCampusID    int64      `json:"to_campus_id"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"` // Pending, Approved, Rejected
	ReviewedBy    int64      `json:"reviewed_by,omitempty"`
	ReviewComment string     `json:"review_comment,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// FacilityIssueReport — жалоба на помещение, привязанная к брони.
type FacilityIssueReport struct {
	ID            int64      `json:"id"`
	BookingID     int64      `json:"booking_id"`
	ReporterID    int64      `json:"reporter_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Severity      string     `json:"severity"`
	Category      string     `json:"category"`
	Status        string     `json:"status"` // Reported, Handled, Resolved
	NewFacilityID int64      `json:"new_facility_id,omitempty"`
	AdminResponse string     `json:"admin_response,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	HandledAt     *time.Time `json:"handled_at,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}
