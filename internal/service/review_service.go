package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ratingMin        = 1
	ratingMax        = 5
	commentMaxLength = 500
)

type CreateReviewInput struct {
	BookingID uuid.UUID
	Rating    float32
	Comment   string
}

type ReviewService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewReviewService(store repository.Store, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		store:  store,
		logger: logger,
	}
}

// Create оставляет отзыв студента о завершённой записи, один на запись
func (s *ReviewService) Create(ctx context.Context, caller model.Caller, in CreateReviewInput) (*model.Review, error) {
	if err := Require(caller, CapReview); err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(in.Comment)
	if in.Rating < ratingMin || in.Rating > ratingMax {
		return nil, apperr.Validation("rating must be between %d and %d", ratingMin, ratingMax)
	}
	if utf8.RuneCountInString(comment) > commentMaxLength {
		return nil, apperr.Validation("comment must be at most %d characters", commentMaxLength)
	}

	var review *model.Review
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		booking, err := tx.Bookings().GetByID(ctx, in.BookingID)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if booking == nil {
			return apperr.ErrBookingNotFound
		}
		if booking.StudentID != caller.UserID {
			return apperr.ErrNotBookingOwner
		}
		if booking.Status != model.BookingStatusCompleted {
			return apperr.ErrBookingNotCompleted
		}

		exists, err := tx.Reviews().ExistsByBooking(ctx, booking.ID)
		if err != nil {
			return fmt.Errorf("check review: %w", err)
		}
		if exists {
			return apperr.ErrReviewExists
		}

		review = &model.Review{
			BookingID: booking.ID,
			StudentID: booking.StudentID,
			TutorID:   booking.TutorID,
			Rating:    in.Rating,
			Comment:   comment,
		}
		if err := tx.Reviews().Create(ctx, review); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.ErrReviewExists
			}
			return fmt.Errorf("create review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("booking_id", review.BookingID.String()),
		zap.Int64("tutor_id", review.TutorID),
		zap.Float32("rating", review.Rating),
	)

	return review, nil
}

func (s *ReviewService) ListByTutor(ctx context.Context, tutorID int64) ([]*model.Review, error) {
	reviews, err := s.store.Reviews().ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("list tutor reviews: %w", err)
	}
	return reviews, nil
}

// GetByBooking отзыв по записи, видят только участники
func (s *ReviewService) GetByBooking(ctx context.Context, caller model.Caller, bookingID uuid.UUID) (*model.Review, error) {
	booking, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.ErrBookingNotFound
	}
	if !booking.HasParticipant(caller.UserID) {
		return nil, apperr.ErrNotBookingMember
	}

	review, err := s.store.Reviews().GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, apperr.ErrReviewNotFound
	}
	return review, nil
}

// AverageRating средняя оценка репетитора, 0 если отзывов нет
func AverageRating(reviews []*model.Review) float32 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float32
	for _, r := range reviews {
		sum += r.Rating
	}
	return sum / float32(len(reviews))
}
