package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/google/uuid"
)

type BookingEventType string

const (
	EventBookingCreated       BookingEventType = "booking.created"
	EventBookingStatusChanged BookingEventType = "booking.status_changed"
	EventBookingDeleted       BookingEventType = "booking.deleted"
)

// BookingEvent изменение бронирования
type BookingEvent struct {
	Type      BookingEventType    `json:"type"`
	BookingID uuid.UUID           `json:"booking_id"`
	PostID    uuid.UUID           `json:"post_id"`
	StudentID int64               `json:"student_id"`
	TutorID   int64               `json:"tutor_id"`
	Subject   string              `json:"subject"`
	OldStatus model.BookingStatus `json:"old_status,omitempty"`
	NewStatus model.BookingStatus `json:"new_status,omitempty"`
	At        time.Time           `json:"at"`
}

func newBookingEvent(typ BookingEventType, b *model.Booking, oldStatus, newStatus model.BookingStatus, at time.Time) BookingEvent {
	return BookingEvent{
		Type:      typ,
		BookingID: b.ID,
		PostID:    b.PostID,
		StudentID: b.StudentID,
		TutorID:   b.TutorID,
		Subject:   b.Subject,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		At:        at,
	}
}

// CrossesConfirmed сообщает вошла ли запись в CONFIRMED или вышла из него
func (e BookingEvent) CrossesConfirmed() bool {
	if e.OldStatus == e.NewStatus {
		return false
	}
	return e.OldStatus == model.BookingStatusConfirmed || e.NewStatus == model.BookingStatusConfirmed
}

// EventPublisher отправляет события наружу после коммита
type EventPublisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

// NopPublisher ничего не отправляет
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// Clock источник текущего времени
type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}
