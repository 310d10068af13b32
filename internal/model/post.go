package model

import (
	"time"

	"github.com/google/uuid"
)

// Post объявление репетитора о регулярном курсе
type Post struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         int64      `json:"owner_id"` // репетитор
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Subject         string     `json:"subject"`
	Location        string     `json:"location"`
	Grade           string     `json:"grade"`
	Schedules       []Schedule `json:"schedules"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	MaxStudent      int        `json:"max_student"`
	ApprovedStudent int        `json:"approved_student"` // пересчитывается только CapacityService
	Visibility      bool       `json:"visibility"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Ended сообщает закончился ли курс к моменту now
func (p *Post) Ended(now time.Time) bool {
	return p.EndTime.Before(now)
}

// IsFull сообщает заняты ли все места
func (p *Post) IsFull() bool {
	return p.ApprovedStudent >= p.MaxStudent
}

// Live пост видим и ещё не закончился
func (p *Post) Live(now time.Time) bool {
	return p.Visibility && !p.Ended(now)
}

// Clone возвращает копию поста с собственным списком расписаний
func (p *Post) Clone() *Post {
	cp := *p
	cp.Schedules = CopySchedules(p.Schedules)
	return &cp
}
