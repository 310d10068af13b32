package model

import (
	"time"

	"github.com/google/uuid"
)

// Review отзыв студента о завершённом занятии
type Review struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	StudentID int64     `json:"student_id"`
	TutorID   int64     `json:"tutor_id"`
	Rating    float32   `json:"rating"` // от 1 до 5
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
