package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTutor   Role = "TUTOR"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole принимает роль в любом регистре
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName имя для показа в интерфейсе
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "@" + u.Username
	}
	return name
}

// Caller текущий пользователь, от имени которого выполняется операция
type Caller struct {
	UserID int64
	Role   Role
}

// CallerOf строит Caller из пользователя
func CallerOf(u *User) Caller {
	return Caller{UserID: u.ID, Role: u.Role}
}
