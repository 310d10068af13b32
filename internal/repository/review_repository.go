package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository/base"
	"github.com/google/uuid"
)

const reviewColumns = `id, booking_id, student_id, tutor_id, rating, comment, created_at`

type reviewRepo struct {
	base.Repository
}

func NewReviewRepository(db base.DBTX) ReviewRepository {
	return &reviewRepo{Repository: base.NewRepository(db)}
}

func scanReview(row base.Scanner) (*model.Review, error) {
	var review model.Review
	err := row.Scan(
		&review.ID,
		&review.BookingID,
		&review.StudentID,
		&review.TutorID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Create создаёт отзыв
func (r *reviewRepo) Create(ctx context.Context, review *model.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}

	query := `
		INSERT INTO reviews (id, booking_id, student_id, tutor_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		review.ID,
		review.BookingID,
		review.StudentID,
		review.TutorID,
		review.Rating,
		review.Comment,
	).Scan(&review.CreatedAt)

	if base.IsUniqueViolation(err) {
		return fmt.Errorf("create review for booking %s: %w", review.BookingID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

// ExistsByBooking проверяет есть ли уже отзыв на бронирование
func (r *reviewRepo) ExistsByBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.DB().QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reviews WHERE booking_id = $1)`, bookingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return exists, nil
}

// GetByBooking получает отзыв по бронированию
func (r *reviewRepo) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE booking_id = $1`

	review, err := scanReview(r.DB().QueryRow(ctx, query, bookingID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review by booking: %w", err)
	}

	return review, nil
}

// ListByTutor получает отзывы о репетиторе
func (r *reviewRepo) ListByTutor(ctx context.Context, tutorID int64) ([]*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE tutor_id = $1 ORDER BY created_at DESC`

	rows, err := r.DB().Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by tutor: %w", err)
	}

	reviews, err := base.CollectRows(rows, scanReview)
	if err != nil {
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return reviews, nil
}
