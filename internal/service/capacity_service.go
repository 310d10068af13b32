package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CapacityService поддерживает approved_student и видимость поста
// в соответствии с подтверждёнными бронированиями.
// Это единственное место, где пишется approved_student.
type CapacityService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewCapacityService(store repository.Store, logger *zap.Logger) *CapacityService {
	return &CapacityService{
		store:  store,
		logger: logger,
	}
}

// Resync пересчитывает подтверждённые места поста внутри транзакции tx.
// Если мест не осталось, пост скрывается. Обратно пост не открывается никогда.
func (s *CapacityService) Resync(ctx context.Context, tx repository.Tx, postID uuid.UUID) error {
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

	confirmed, err := tx.Bookings().CountByPostAndStatus(ctx, postID, model.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("count confirmed bookings: %w", err)
	}

	visibility := post.Visibility
	if confirmed >= post.MaxStudent {
		visibility = false
	}

	if confirmed == post.ApprovedStudent && visibility == post.Visibility {
		return nil
	}

	if err := tx.Posts().UpdateCapacity(ctx, postID, confirmed, visibility); err != nil {
		return fmt.Errorf("update post capacity: %w", err)
	}

	s.logger.Info("Post capacity resynced",
		zap.String("post_id", postID.String()),
		zap.Int("approved_student", confirmed),
		zap.Int("max_student", post.MaxStudent),
		zap.Bool("visibility", visibility),
	)

	return nil
}

// OnBookingEvent пересчитывает пост, если запись вошла в CONFIRMED или вышла из него.
// Вызывается в той же транзакции, что и смена статуса.
func (s *CapacityService) OnBookingEvent(ctx context.Context, tx repository.Tx, event BookingEvent) error {
	if !event.CrossesConfirmed() {
		return nil
	}

	err := s.Resync(ctx, tx, event.PostID)
	if errors.Is(err, apperr.ErrPostNotFound) {
		// пост удалён, пересчитывать нечего
		s.logger.Warn("Skip capacity resync for deleted post",
			zap.String("post_id", event.PostID.String()),
			zap.String("booking_id", event.BookingID.String()),
		)
		return nil
	}
	return err
}

// ResyncPostCapacity пересчитывает пост в отдельной транзакции
func (s *CapacityService) ResyncPostCapacity(ctx context.Context, postID uuid.UUID) error {
	return s.store.InTx(ctx, func(tx repository.Tx) error {
		return s.Resync(ctx, tx, postID)
	})
}

// ReconcileAll пересчитывает все посты, каждый в своей транзакции.
// Возвращает количество обработанных постов.
func (s *CapacityService) ReconcileAll(ctx context.Context) (int, error) {
	posts, err := s.store.Posts().List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list posts: %w", err)
	}

	processed := 0
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		err := s.ResyncPostCapacity(ctx, post.ID)
		if errors.Is(err, apperr.ErrPostNotFound) {
			continue
		}
		if err != nil {
			return processed, fmt.Errorf("resync post %s: %w", post.ID, err)
		}
		processed++
	}

	return processed, nil
}
