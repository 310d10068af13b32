package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/google/uuid"
)

// PostLookup находит пост по ID, (nil, nil) если поста нет
type PostLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
}

// Validator проверяет список слотов на внутренние конфликты и конфликты
// с уже существующими постами или бронированиями одного и того же человека
type Validator struct {
	now func() time.Time
}

// NewValidator создаёт валидатор, now задаёт текущее время (nil - time.Now)
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// CheckSelf попарно сравнивает слоты кандидата между собой
func (v *Validator) CheckSelf(candidates []model.Schedule) error {
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if Overlaps(candidates[i], candidates[j]) {
				return apperr.ErrScheduleSelfOverlap.With(
					"schedule %s conflicts with schedule %s", candidates[i], candidates[j])
			}
		}
	}
	return nil
}

// CheckPosts сравнивает кандидата с живыми постами.
// Скрытые и закончившиеся посты пропускаются.
func (v *Validator) CheckPosts(candidates []model.Schedule, existing []*model.Post) error {
	now := v.now()
	for _, post := range existing {
		if post == nil || !post.Live(now) {
			continue
		}
		if a, b, ok := firstOverlap(candidates, post.Schedules); ok {
			return apperr.ErrSchedulePostOverlap.With(
				"schedule %s overlaps with %s of post %q (%s)", a, b, post.Title, post.ID)
		}
	}
	return nil
}

// ValidatePostSchedules проверяет слоты поста против других постов того же репетитора.
// selfCheck дополнительно включает попарную проверку самого списка.
func (v *Validator) ValidatePostSchedules(candidates []model.Schedule, existing []*model.Post, selfCheck bool) error {
	if selfCheck {
		if err := v.CheckSelf(candidates); err != nil {
			return err
		}
	}
	return v.CheckPosts(candidates, existing)
}

// CheckBookings сравнивает кандидата с активными бронированиями студента.
// Учитываются только PENDING и CONFIRMED, чей пост найден и ещё не закончился.
// Сравнение идёт со снимком расписания в бронировании.
func (v *Validator) CheckBookings(ctx context.Context, candidates []model.Schedule, bookings []*model.Booking, posts PostLookup) error {
	now := v.now()
	for _, booking := range bookings {
		if booking == nil || !booking.Status.Active() {
			continue
		}

		post, err := posts.GetByID(ctx, booking.PostID)
		if err != nil {
			return fmt.Errorf("get post of booking %s: %w", booking.ID, err)
		}
		if post == nil || post.Ended(now) {
			continue
		}

		if a, b, ok := firstOverlap(candidates, booking.Schedules); ok {
			return apperr.ErrScheduleOverlap.With(
				"schedule %s overlaps with %s of your booking %s (%s)", a, b, booking.ID, booking.Subject)
		}
	}
	return nil
}

// firstOverlap возвращает первую пересекающуюся пару
func firstOverlap(candidates, existing []model.Schedule) (model.Schedule, model.Schedule, bool) {
	for _, a := range candidates {
		for _, b := range existing {
			if Overlaps(a, b) {
				return a, b, true
			}
		}
	}
	return model.Schedule{}, model.Schedule{}, false
}
