package models

// Статусы бронирования — стабильные строковые теги, уходят наружу через API как есть.
const (
	StatusPendingLecturerApproval = "PendingLecturerApproval"
	StatusPendingAdminApproval    = "PendingAdminApproval"
	StatusApproved                = "Approved"
	StatusInUse                   = "InUse"
	StatusCompleted               = "Completed"
	StatusRejected                = "Rejected"
	StatusCancelled               = "Cancelled"
)

// BlockingStatuses — статусы, которые занимают слот и участвуют в проверке пересечений.
var BlockingStatuses = []string{
	StatusPendingLecturerApproval,
	StatusPendingAdminApproval,
	StatusApproved,
	StatusInUse,
}

const (
	RequestStatusPending  = "Pending"
	RequestStatusApproved = "Approved"
	RequestStatusRejected = "Rejected"
)

const (
	IssueStatusReported = "Reported"
	IssueStatusHandled  = "Handled"
	IssueStatusResolved = "Resolved"
)

const (
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
	RoleAdmin    = "admin"
)

const (
	FacilityAvailable   = "Available"
	FacilityInUse       = "InUse"
	FacilityMaintenance = "Maintenance"
)

const (
	// DateLayout формат даты бронирования в хранилище и API
	DateLayout = "2006-01-02"

	// ClockLayout формат времени суток; строки с ведущими нулями сравниваются лексикографически
	ClockLayout = "15:04"

	// DefaultSweepInterval интервал фонового прохода по статусам, секунды
	DefaultSweepInterval = 60

	// ReferenceCacheTTL время жизни кэша справочных данных, секунды
	ReferenceCacheTTL = 10 * 60
)
