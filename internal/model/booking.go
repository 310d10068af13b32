package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"   // Ожидает решения репетитора
	BookingStatusConfirmed BookingStatus = "CONFIRMED" // Подтверждено, занимает место
	BookingStatusCompleted BookingStatus = "COMPLETED" // Завершено
	BookingStatusCanceled  BookingStatus = "CANCELED"  // Отменено
)

// ParseBookingStatus проверяет что статус из известного набора
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch st := BookingStatus(s); st {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCanceled:
		return st, true
	default:
		return "", false
	}
}

// Active бронирование ещё участвует в проверке пересечений
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	ID        uuid.UUID     `json:"id"`
	StudentID int64         `json:"student_id"`
	TutorID   int64         `json:"tutor_id"` // копия Post.OwnerID на момент записи
	PostID    uuid.UUID     `json:"post_id"`
	Subject   string        `json:"subject"`   // копия Post.Subject
	Schedules []Schedule    `json:"schedules"` // снимок расписания поста, не ссылка
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// HasParticipant сообщает является ли пользователь студентом или репетитором записи
func (b *Booking) HasParticipant(userID int64) bool {
	return b.StudentID == userID || b.TutorID == userID
}

func (b *Booking) Clone() *Booking {
	cp := *b
	cp.Schedules = CopySchedules(b.Schedules)
	return &cp
}
