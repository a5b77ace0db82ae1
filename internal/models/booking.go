package models

import "time"

type Booking struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	FacilityID      int64      `json:"facility_id"`
	FacilityName    string     `json:"facility_name"`
	UserID          int64      `json:"user_id"`
	UserName        string     `json:"user_name"`
	Date            time.Time  `json:"date"`
	StartTime       string     `json:"start_time"` // "15:04"
	EndTime         string     `json:"end_time"`   // "15:04"
	Status          string     `json:"status"`
	LecturerContact string     `json:"lecturer_contact,omitempty"`
	Purpose         string     `json:"purpose,omitempty"`
	ApprovedBy      int64      `json:"approved_by,omitempty"`
	RejectedBy      int64      `json:"rejected_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	Version         int64      `json:"version"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// Overlaps проверяет пересечение полуоткрытых интервалов [s1,e1) и [s2,e2).
// Времена "15:04" с ведущими нулями, поэтому сравнение строк корректно.
func Overlaps(s1, e1, s2, e2 string) bool {
	return s1 < e2 && s2 < e1
}

// ValidClock сообщает, что строка является временем суток в формате "15:04".
func ValidClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// StartsBy сообщает, наступило ли начало брони к моменту now.
func (b *Booking) StartsBy(now time.Time) bool {
	return !now.Before(atClock(b.Date, b.StartTime))
}

func atClock(date time.Time, clock string) time.Time {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}
