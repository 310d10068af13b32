package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/Freeeeeet/tutor_market/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	other := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 3, slot(time.Monday, "10:00", "11:00"))
	booking := env.book(t, student, post)

	in := CreateReviewInput{BookingID: booking.ID, Rating: 5, Comment: "  Great explanations  "}

	_, err := env.reviews.Create(ctx, tutor, in)
	requireCode(t, err, apperr.ErrNotStudent)

	_, err = env.reviews.Create(ctx, student, in)
	requireCode(t, err, apperr.ErrBookingNotCompleted)

	env.setStatus(t, tutor, booking, model.BookingStatusCompleted)

	_, err = env.reviews.Create(ctx, other, in)
	requireCode(t, err, apperr.ErrNotBookingOwner)

	_, err = env.reviews.Create(ctx, student, CreateReviewInput{BookingID: uuid.New(), Rating: 4})
	requireCode(t, err, apperr.ErrBookingNotFound)

	review, err := env.reviews.Create(ctx, student, in)
	require.NoError(t, err)
	assert.Equal(t, "Great explanations", review.Comment)
	assert.Equal(t, tutor.UserID, review.TutorID)

	_, err = env.reviews.Create(ctx, student, in)
	requireCode(t, err, apperr.ErrReviewExists)

	got, err := env.reviews.GetByBooking(ctx, tutor, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)

	_, err = env.reviews.GetByBooking(ctx, other, booking.ID)
	requireCode(t, err, apperr.ErrNotBookingMember)

	reviews, err := env.reviews.ListByTutor(ctx, tutor.UserID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.InDelta(t, 5, AverageRating(reviews), 0.001)
}

func TestReviewCreate_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	student := env.user(t, model.RoleStudent)

	tests := []CreateReviewInput{
		{BookingID: uuid.New(), Rating: 0},
		{BookingID: uuid.New(), Rating: 5.5},
		{BookingID: uuid.New(), Rating: 3, Comment: strings.Repeat("x", 501)},
	}
	for _, in := range tests {
		_, err := env.reviews.Create(ctx, student, in)
		requireCode(t, err, apperr.ErrValidation)
	}
}

func TestReviewGetByBookingWithoutReview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	booking := env.book(t, student, env.post(t, tutor, 3, slot(time.Monday, "10:00", "11:00")))

	_, err := env.reviews.GetByBooking(ctx, student, booking.ID)
	requireCode(t, err, apperr.ErrReviewNotFound)
}

func TestAverageRating(t *testing.T) {
	assert.Zero(t, AverageRating(nil))
	assert.InDelta(t, 3.5, AverageRating([]*model.Review{{Rating: 3}, {Rating: 4}}), 0.001)
}

// staleReviewStore пропускает проверку существующего отзыва, как
// параллельная транзакция, прочитавшая данные до коммита соседней
type staleReviewStore struct{ *memory.Store }

func (s staleReviewStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.InTx(ctx, func(tx repository.Tx) error {
		return fn(staleReviewTx{tx})
	})
}

type staleReviewTx struct{ repository.Tx }

func (t staleReviewTx) Reviews() repository.ReviewRepository {
	return staleReviews{t.Tx.Reviews()}
}

type staleReviews struct{ repository.ReviewRepository }

func (staleReviews) ExistsByBooking(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

func TestReviewCreate_UniqueBookingConflict(t *testing.T) {
	ctx := context.Background()
	data := memory.NewStore(testClock)
	env := newTestEnvOn(data, staleReviewStore{data})

	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 3, slot(time.Monday, "10:00", "11:00"))
	booking := env.book(t, student, post)
	env.setStatus(t, tutor, booking, model.BookingStatusCompleted)

	in := CreateReviewInput{BookingID: booking.ID, Rating: 4}
	_, err := env.reviews.Create(ctx, student, in)
	require.NoError(t, err)

	_, err = env.reviews.Create(ctx, student, in)
	requireCode(t, err, apperr.ErrReviewExists)

	reviews, err := env.reviews.ListByTutor(ctx, tutor.UserID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}
