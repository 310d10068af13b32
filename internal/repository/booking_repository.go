package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository/base"
	"github.com/google/uuid"
)

const bookingColumns = `
	id, student_id, tutor_id, post_id, subject, schedules, status, created_at, updated_at`

type bookingRepo struct {
	base.Repository
}

func NewBookingRepository(db base.DBTX) BookingRepository {
	return &bookingRepo{Repository: base.NewRepository(db)}
}

func scanBooking(row base.Scanner) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.StudentID,
		&booking.TutorID,
		&booking.PostID,
		&booking.Subject,
		&booking.Schedules,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create создаёт новое бронирование
func (r *bookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	query := `
		INSERT INTO bookings (id, student_id, tutor_id, post_id, subject, schedules, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		booking.ID,
		booking.StudentID,
		booking.TutorID,
		booking.PostID,
		booking.Subject,
		booking.Schedules,
		booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

func (r *bookingRepo) list(ctx context.Context, op, where string, args ...any) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + where + ` ORDER BY created_at DESC`

	rows, err := r.DB().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bookings, err := base.CollectRows(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	return bookings, nil
}

// ListByStudent получает все бронирования студента
func (r *bookingRepo) ListByStudent(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	return r.list(ctx, "get bookings by student", "student_id = $1", studentID)
}

// ListByTutor получает все бронирования к репетитору
func (r *bookingRepo) ListByTutor(ctx context.Context, tutorID int64) ([]*model.Booking, error) {
	return r.list(ctx, "get bookings by tutor", "tutor_id = $1", tutorID)
}

// ListByUser получает бронирования где пользователь студент или репетитор
func (r *bookingRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Booking, error) {
	return r.list(ctx, "get bookings by user", "student_id = $1 OR tutor_id = $1", userID)
}

// UpdateStatus обновляет статус бронирования
func (r *bookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	affected, err := r.ExecAffected(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update booking status: booking %s not found", id)
	}

	return nil
}

// DeletePending удаляет бронирование, пока оно ждёт подтверждения
func (r *bookingRepo) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM bookings WHERE id = $1 AND status = $2`

	affected, err := r.ExecAffected(ctx, query, id, model.BookingStatusPending)
	if err != nil {
		return false, fmt.Errorf("delete booking: %w", err)
	}
	return affected > 0, nil
}

// CountByPostAndStatus считает бронирования поста в заданном статусе
func (r *bookingRepo) CountByPostAndStatus(ctx context.Context, postID uuid.UUID, status model.BookingStatus) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE post_id = $1 AND status = $2`

	var count int
	if err := r.DB().QueryRow(ctx, query, postID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bookings by post: %w", err)
	}
	return count, nil
}
