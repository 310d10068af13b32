package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/Freeeeeet/tutor_market/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService управляет жизненным циклом записи студента на курс
type BookingService struct {
	store     repository.Store
	capacity  *CapacityService
	validator *schedule.Validator
	publisher EventPublisher
	now       Clock
	logger    *zap.Logger
}

func NewBookingService(
	store repository.Store,
	capacity *CapacityService,
	publisher EventPublisher,
	now Clock,
	logger *zap.Logger,
) *BookingService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	now = now.orDefault()
	return &BookingService{
		store:     store,
		capacity:  capacity,
		validator: schedule.NewValidator(now),
		publisher: publisher,
		now:       now,
		logger:    logger,
	}
}

// Create записывает студента на пост.
// Студент и пост блокируются именно в таком порядке.
func (s *BookingService) Create(ctx context.Context, caller model.Caller, postID uuid.UUID) (*model.Booking, error) {
	if err := Require(caller, CapBook); err != nil {
		return nil, err
	}

	var booking *model.Booking
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockUser(ctx, caller.UserID); err != nil {
			return fmt.Errorf("lock student: %w", err)
		}
		if err := tx.LockPost(ctx, postID); err != nil {
			return fmt.Errorf("lock post: %w", err)
		}

		post, err := tx.Posts().GetByID(ctx, postID)
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		if post == nil {
			return apperr.ErrPostNotFound
		}
		if !post.Visibility {
			return apperr.ErrPostNotAvailable
		}
		if post.IsFull() {
			return apperr.ErrPostFull
		}
		if post.Ended(s.now()) {
			return apperr.ErrPostEnded
		}

		existing, err := tx.Bookings().ListByStudent(ctx, caller.UserID)
		if err != nil {
			return fmt.Errorf("list student bookings: %w", err)
		}
		if err := s.validator.CheckBookings(ctx, post.Schedules, existing, tx.Posts()); err != nil {
			return err
		}

		booking = &model.Booking{
			StudentID: caller.UserID,
			TutorID:   post.OwnerID,
			PostID:    post.ID,
			Subject:   post.Subject,
			Schedules: model.CopySchedules(post.Schedules),
			Status:    model.BookingStatusPending,
		}
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("post_id", booking.PostID.String()),
		zap.Int64("student_id", booking.StudentID),
		zap.Int64("tutor_id", booking.TutorID),
	)
	s.publish(ctx, newBookingEvent(EventBookingCreated, booking, "", booking.Status, s.now()))

	return booking, nil
}

// ListForCaller записи студента или репетитора
func (s *BookingService) ListForCaller(ctx context.Context, caller model.Caller) ([]*model.Booking, error) {
	if err := Require(caller, CapListOwnBookings); err != nil {
		return nil, err
	}

	var (
		bookings []*model.Booking
		err      error
	)
	switch caller.Role {
	case model.RoleStudent:
		bookings, err = s.store.Bookings().ListByStudent(ctx, caller.UserID)
	case model.RoleTutor:
		bookings, err = s.store.Bookings().ListByTutor(ctx, caller.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// Get запись доступна только её участникам и администратору
func (s *BookingService) Get(ctx context.Context, caller model.Caller, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.ErrBookingNotFound
	}
	if !booking.HasParticipant(caller.UserID) && !Can(caller, CapAdmin) {
		return nil, apperr.ErrNotBookingMember
	}
	return booking, nil
}

// UpdateStatus меняет статус записи репетитором курса.
// Переход через CONFIRMED пересчитывает места поста в той же транзакции.
func (s *BookingService) UpdateStatus(ctx context.Context, caller model.Caller, bookingID uuid.UUID, status model.BookingStatus) (*model.Booking, error) {
	if _, ok := model.ParseBookingStatus(string(status)); !ok {
		return nil, apperr.Validation("unknown booking status %q", status)
	}
	if err := Require(caller, CapUpdateBookingStatus); err != nil {
		return nil, err
	}

	var (
		booking *model.Booking
		event   BookingEvent
	)
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		current, err := lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if current.TutorID != caller.UserID {
			return apperr.ErrNotBookingTutor
		}

		oldStatus := current.Status
		if err := tx.Bookings().UpdateStatus(ctx, bookingID, status); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		current.Status = status

		event = newBookingEvent(EventBookingStatusChanged, current, oldStatus, status, s.now())
		if err := s.capacity.OnBookingEvent(ctx, tx, event); err != nil {
			return fmt.Errorf("resync post capacity: %w", err)
		}

		booking = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking status updated",
		zap.String("booking_id", booking.ID.String()),
		zap.String("post_id", booking.PostID.String()),
		zap.String("old_status", string(event.OldStatus)),
		zap.String("new_status", string(event.NewStatus)),
	)
	s.publish(ctx, event)

	return booking, nil
}

// Delete удаляет свою заявку студента, пока она в статусе PENDING.
// На места поста не влияет.
func (s *BookingService) Delete(ctx context.Context, caller model.Caller, bookingID uuid.UUID) error {
	if err := Require(caller, CapDeleteBooking); err != nil {
		return err
	}

	var deleted *model.Booking
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		booking, err := lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.StudentID != caller.UserID {
			return apperr.ErrNotBookingOwner
		}
		if booking.Status != model.BookingStatusPending {
			return apperr.ErrNotPendingStatus
		}

		ok, err := tx.Bookings().DeletePending(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("delete booking: %w", err)
		}
		if !ok {
			return apperr.ErrNotPendingStatus
		}
		deleted = booking
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Booking deleted",
		zap.String("booking_id", deleted.ID.String()),
		zap.Int64("student_id", deleted.StudentID),
	)
	s.publish(ctx, newBookingEvent(EventBookingDeleted, deleted, deleted.Status, "", s.now()))

	return nil
}

// lockBooking берёт блокировку поста записи и перечитывает её под ней.
// Статус, прочитанный до блокировки, мог устареть.
func lockBooking(ctx context.Context, tx repository.Tx, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := tx.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.ErrBookingNotFound
	}

	if err := tx.LockPost(ctx, booking.PostID); err != nil {
		return nil, fmt.Errorf("lock post: %w", err)
	}

	booking, err = tx.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.ErrBookingNotFound
	}
	return booking, nil
}

// ListByUser все записи, где пользователь студент или репетитор.
// Право администратора проверяет вызывающий слой.
func (s *BookingService) ListByUser(ctx context.Context, userID int64) ([]*model.Booking, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}

	bookings, err := s.store.Bookings().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingService) publish(ctx context.Context, event BookingEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish booking event",
			zap.String("type", string(event.Type)),
			zap.String("booking_id", event.BookingID.String()),
			zap.Error(err),
		)
	}
}
