// Package apperr описывает бизнес-ошибки с устойчивым кодом и сообщением для пользователя.
package apperr

import (
	"errors"
	"fmt"
)

// Kind класс бизнес-ошибки
type Kind string

const (
	KindRole       Kind = "role"       // неподходящая роль
	KindNotFound   Kind = "not_found"  // сущность не найдена
	KindForbidden  Kind = "forbidden"  // не владелец и не участник
	KindState      Kind = "state"      // сущность в неподходящем состоянии
	KindConflict   Kind = "conflict"   // пересечение расписаний
	KindValidation Kind = "validation" // некорректные входные данные
)

// Error бизнес-ошибка. Сравнение через errors.Is идёт по коду.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is сравнивает ошибки по коду, сообщение может быть уточнено через With
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// With возвращает копию ошибки с уточнённым сообщением
func (e *Error) With(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

func newErr(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Роли
var (
	ErrNotStudent  = newErr(KindRole, "NOT_STUDENT", "only students can perform this action")
	ErrNotTutor    = newErr(KindRole, "NOT_TUTOR", "only tutors can perform this action")
	ErrNotAdmin    = newErr(KindRole, "NOT_ADMIN", "admin privilege required")
	ErrInvalidRole = newErr(KindRole, "INVALID_ROLE", "invalid user role")
)

// Не найдено
var (
	ErrPostNotFound    = newErr(KindNotFound, "POST_NOT_FOUND", "post not found")
	ErrBookingNotFound = newErr(KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrUserNotFound    = newErr(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrReviewNotFound  = newErr(KindNotFound, "REVIEW_NOT_FOUND", "review not found for this booking")
)

// Доступ
var (
	ErrNotPostOwner     = newErr(KindForbidden, "NOT_POST_OWNER", "you can only update your own posts")
	ErrNotBookingOwner  = newErr(KindForbidden, "NOT_BOOKING_OWNER", "you can only modify your own bookings")
	ErrNotBookingTutor  = newErr(KindForbidden, "NOT_BOOKING_TUTOR", "only the tutor of this booking can update its status")
	ErrNotBookingMember = newErr(KindForbidden, "NOT_BOOKING_PARTICIPANT", "you are not associated with this booking")
)

// Состояние
var (
	ErrPostNotAvailable    = newErr(KindState, "POST_NOT_AVAILABLE", "this post is no longer available for booking")
	ErrPostFull            = newErr(KindState, "POST_FULL", "this post has reached its maximum number of students")
	ErrPostEnded           = newErr(KindState, "POST_ENDED", "this post has already ended")
	ErrNotPendingStatus    = newErr(KindState, "NOT_PENDING_STATUS", "only pending bookings can be deleted")
	ErrBookingNotCompleted = newErr(KindState, "BOOKING_NOT_COMPLETED", "only completed bookings can be reviewed")
)

// Конфликты расписания
var (
	ErrScheduleSelfOverlap = newErr(KindConflict, "SCHEDULE_SELF_OVERLAP", "the schedules conflict with each other")
	ErrSchedulePostOverlap = newErr(KindConflict, "SCHEDULE_POST_OVERLAP", "the schedule overlaps with your existing posts")
	ErrScheduleOverlap     = newErr(KindConflict, "SCHEDULE_OVERLAP", "this schedule overlaps with one of your existing bookings")
	ErrReviewExists        = newErr(KindConflict, "REVIEW_EXISTS", "a review already exists for this booking")
)

// ErrValidation базовая ошибка валидации, конкретика передаётся через Validation
var ErrValidation = newErr(KindValidation, "VALIDATION_FAILED", "invalid input")

// Validation создаёт ошибку валидации с сообщением
func Validation(format string, args ...any) *Error {
	return ErrValidation.With(format, args...)
}

// As извлекает бизнес-ошибку из цепочки
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf возвращает класс ошибки или пустую строку для инфраструктурных ошибок
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// Code возвращает код ошибки или INTERNAL
func Code(err error) string {
	if e, ok := As(err); ok {
		return e.Code
	}
	return "INTERNAL"
}
