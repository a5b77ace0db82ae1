package models

import "time"

type Facility struct {
	ID        int64      `yaml:"id" json:"id"`
	CampusID  int64      `yaml:"campus_id" json:"campus_id"`
	Name      string     `yaml:"name" json:"name"`
	Capacity  int64      `yaml:"capacity" json:"capacity"`
	Status    string     `yaml:"status" json:"status"` // Available, InUse, Maintenance
	CreatedAt time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time  `yaml:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `yaml:"-" json:"deleted_at,omitempty"`
}

type Campus struct {
	ID        int64      `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Code      string     `yaml:"code" json:"code"`       // короткий код для номеров броней, например "C1"
	OpenTime  string     `yaml:"open_time" json:"open_time"`   // "08:00"
	CloseTime string     `yaml:"close_time" json:"close_time"` // "18:00"
	DeletedAt *time.Time `yaml:"-" json:"deleted_at,omitempty"`
}

// WithinWorkingHours проверяет, что [start,end) лежит внутри рабочего окна кампуса.
func (c *Campus) WithinWorkingHours(start, end string) bool {
	return start >= c.OpenTime && end <= c.CloseTime
}

type Holiday struct {
	ID        int64      `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Date      time.Time  `yaml:"date" json:"date"`
	Recurring bool       `yaml:"recurring" json:"recurring"` // совпадение по месяцу и дню, год игнорируется
	DeletedAt *time.Time `yaml:"-" json:"deleted_at,omitempty"`
}

// Matches сообщает, выпадает ли дата на праздник.
func (h *Holiday) Matches(date time.Time) bool {
	if h.Recurring {
		return h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
	}
	return h.Date.Year() == date.Year() && h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
}
