package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/Freeeeeet/tutor_market/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	titleMinLen       = 5
	titleMaxLen       = 100
	descriptionMaxLen = 1000
)

type CreatePostInput struct {
	Title       string
	Description string
	Subject     string
	Location    string
	Grade       string
	Schedules   []model.Schedule
	StartTime   time.Time
	EndTime     time.Time
	MaxStudent  int
	Visibility  *bool // nil - пост сразу виден
}

// UpdatePostInput частичное обновление, nil поля не меняются
type UpdatePostInput struct {
	Title       *string
	Description *string
	Subject     *string
	Location    *string
	Grade       *string
	Schedules   []model.Schedule
	StartTime   *time.Time
	EndTime     *time.Time
	MaxStudent  *int
	Visibility  *bool
}

type PostService struct {
	store     repository.Store
	capacity  *CapacityService
	validator *schedule.Validator
	now       Clock
	logger    *zap.Logger
}

func NewPostService(store repository.Store, capacity *CapacityService, now Clock, logger *zap.Logger) *PostService {
	now = now.orDefault()
	return &PostService{
		store:     store,
		capacity:  capacity,
		validator: schedule.NewValidator(now),
		now:       now,
		logger:    logger,
	}
}

// Create публикует пост репетитора.
// Слоты проверяются между собой и против живых постов того же репетитора.
func (s *PostService) Create(ctx context.Context, caller model.Caller, in CreatePostInput) (*model.Post, error) {
	if err := Require(caller, CapCreatePost); err != nil {
		return nil, err
	}

	visibility := true
	if in.Visibility != nil {
		visibility = *in.Visibility
	}

	post := &model.Post{
		OwnerID:     caller.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Subject:     strings.TrimSpace(in.Subject),
		Location:    strings.TrimSpace(in.Location),
		Grade:       strings.TrimSpace(in.Grade),
		Schedules:   model.CopySchedules(in.Schedules),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		MaxStudent:  in.MaxStudent,
		Visibility:  visibility,
	}

	if err := validatePostFields(post); err != nil {
		return nil, err
	}
	if !post.StartTime.After(s.now()) {
		return nil, apperr.Validation("start time must be in the future")
	}

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockUser(ctx, caller.UserID); err != nil {
			return fmt.Errorf("lock tutor: %w", err)
		}

		existing, err := tx.Posts().ListByOwner(ctx, caller.UserID)
		if err != nil {
			return fmt.Errorf("list tutor posts: %w", err)
		}
		if err := s.validator.ValidatePostSchedules(post.Schedules, existing, true); err != nil {
			return err
		}

		if err := tx.Posts().Create(ctx, post); err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Post created",
		zap.String("post_id", post.ID.String()),
		zap.Int64("owner_id", post.OwnerID),
		zap.Int("schedules", len(post.Schedules)),
		zap.Int("max_student", post.MaxStudent),
	)

	return post, nil
}

// Update меняет пост владельца
func (s *PostService) Update(ctx context.Context, caller model.Caller, postID uuid.UUID, in UpdatePostInput) (*model.Post, error) {
	if err := Require(caller, CapCreatePost); err != nil {
		return nil, err
	}
	return s.update(ctx, postID, in, func(post *model.Post) error {
		if post.OwnerID != caller.UserID {
			return apperr.ErrNotPostOwner
		}
		return nil
	})
}

// AdminUpdate меняет любой пост без проверки владельца.
// Право администратора проверяет вызывающий слой.
func (s *PostService) AdminUpdate(ctx context.Context, postID uuid.UUID, in UpdatePostInput) (*model.Post, error) {
	return s.update(ctx, postID, in, nil)
}

func (s *PostService) update(ctx context.Context, postID uuid.UUID, in UpdatePostInput, authorize func(*model.Post) error) (*model.Post, error) {
	if in.Schedules != nil {
		if err := schedule.ValidateShape(in.Schedules); err != nil {
			return nil, err
		}
	}

	var updated *model.Post
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		post, err := tx.Posts().GetByID(ctx, postID)
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		if post == nil {
			return apperr.ErrPostNotFound
		}
		if authorize != nil {
			if err := authorize(post); err != nil {
				return err
			}
		}

		if err := tx.LockUser(ctx, post.OwnerID); err != nil {
			return fmt.Errorf("lock tutor: %w", err)
		}
		if err := tx.LockPost(ctx, postID); err != nil {
			return fmt.Errorf("lock post: %w", err)
		}

		// перечитываем под блокировкой
		post, err = tx.Posts().GetByID(ctx, postID)
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		if post == nil {
			return apperr.ErrPostNotFound
		}

		wasLive := post.Live(s.now())
		applyPostUpdate(post, in)
		if err := validatePostFields(post); err != nil {
			return err
		}

		// пост, снова ставший живым, тоже не должен пересекаться с живыми постами
		revived := !wasLive && post.Live(s.now()) && !post.IsFull()
		if in.Schedules != nil || revived {
			owned, err := tx.Posts().ListByOwner(ctx, post.OwnerID)
			if err != nil {
				return fmt.Errorf("list tutor posts: %w", err)
			}
			others := make([]*model.Post, 0, len(owned))
			for _, p := range owned {
				if p.ID != post.ID {
					others = append(others, p)
				}
			}
			if err := s.validator.ValidatePostSchedules(post.Schedules, others, in.Schedules != nil); err != nil {
				return err
			}
		}

		if err := tx.Posts().Update(ctx, post); err != nil {
			return fmt.Errorf("update post: %w", err)
		}

		// новая видимость или max_student могут нарушить правило заполненности
		if err := s.capacity.Resync(ctx, tx, postID); err != nil {
			return err
		}

		updated, err = tx.Posts().GetByID(ctx, postID)
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Post updated",
		zap.String("post_id", postID.String()),
		zap.Bool("visibility", updated.Visibility),
	)

	return updated, nil
}

func applyPostUpdate(post *model.Post, in UpdatePostInput) {
	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		post.Description = strings.TrimSpace(*in.Description)
	}
	if in.Subject != nil {
		post.Subject = strings.TrimSpace(*in.Subject)
	}
	if in.Location != nil {
		post.Location = strings.TrimSpace(*in.Location)
	}
	if in.Grade != nil {
		post.Grade = strings.TrimSpace(*in.Grade)
	}
	if in.Schedules != nil {
		post.Schedules = model.CopySchedules(in.Schedules)
	}
	if in.StartTime != nil {
		post.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		post.EndTime = *in.EndTime
	}
	if in.MaxStudent != nil {
		post.MaxStudent = *in.MaxStudent
	}
	if in.Visibility != nil {
		post.Visibility = *in.Visibility
	}
}

func validatePostFields(post *model.Post) error {
	if n := utf8.RuneCountInString(post.Title); n < titleMinLen || n > titleMaxLen {
		return apperr.Validation("title must be between %d and %d characters", titleMinLen, titleMaxLen)
	}
	if post.Description == "" {
		return apperr.Validation("description is required")
	}
	if utf8.RuneCountInString(post.Description) > descriptionMaxLen {
		return apperr.Validation("description must be at most %d characters", descriptionMaxLen)
	}
	if post.Subject == "" {
		return apperr.Validation("subject is required")
	}
	if post.Location == "" {
		return apperr.Validation("location is required")
	}
	if post.Grade == "" {
		return apperr.Validation("grade is required")
	}
	if post.MaxStudent < 1 {
		return apperr.Validation("max student must be at least 1")
	}
	if post.StartTime.IsZero() || post.EndTime.IsZero() {
		return apperr.Validation("start and end time are required")
	}
	if !post.EndTime.After(post.StartTime) {
		return apperr.Validation("end time must be after start time")
	}
	return schedule.ValidateShape(post.Schedules)
}

func (s *PostService) Get(ctx context.Context, postID uuid.UUID) (*model.Post, error) {
	post, err := s.store.Posts().GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, apperr.ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.store.Posts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListAvailable посты, на которые сейчас можно записаться
func (s *PostService) ListAvailable(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	available := make([]*model.Post, 0, len(posts))
	for _, post := range posts {
		if post.Live(now) && !post.IsFull() {
			available = append(available, post)
		}
	}
	return available, nil
}

func (s *PostService) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Post, error) {
	posts, err := s.store.Posts().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tutor posts: %w", err)
	}
	return posts, nil
}

// Delete удаляет пост. Бронирования поста остаются.
func (s *PostService) Delete(ctx context.Context, caller model.Caller, postID uuid.UUID) error {
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		post, err := tx.Posts().GetByID(ctx, postID)
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		if post == nil {
			return apperr.ErrPostNotFound
		}
		if !Can(caller, CapAdmin) && post.OwnerID != caller.UserID {
			return apperr.ErrNotPostOwner
		}

		if err := tx.LockPost(ctx, postID); err != nil {
			return fmt.Errorf("lock post: %w", err)
		}
		deleted, err := tx.Posts().Delete(ctx, postID)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		if !deleted {
			return apperr.ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Post deleted",
		zap.String("post_id", postID.String()),
		zap.Int64("deleted_by", caller.UserID),
	)
	return nil
}
