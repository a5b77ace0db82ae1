package models

import "time"

type User struct {
	ID        int64      `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Role      string     `yaml:"role" json:"role"` // student, lecturer, admin
	Contact   string     `yaml:"contact" json:"contact"`
	CampusID  int64      `yaml:"campus_id" json:"campus_id"`
	CreatedAt time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time  `yaml:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `yaml:"-" json:"deleted_at,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsLecturer() bool {
	return u.Role == RoleLecturer
}
