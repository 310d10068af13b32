package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repository.Store = (*Store)(nil)

func fixedClock() time.Time {
	return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
}

func newPost(ownerID int64) *model.Post {
	return &model.Post{
		OwnerID:    ownerID,
		Title:      "Physics for grade 9",
		Schedules:  []model.Schedule{{Weekday: time.Monday, StartHour: model.NewClock(9, 0), EndHour: model.NewClock(10, 0)}},
		StartTime:  fixedClock().Add(24 * time.Hour),
		EndTime:    fixedClock().Add(60 * 24 * time.Hour),
		MaxStudent: 2,
		Visibility: true,
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore(fixedClock)

	post := newPost(1)
	require.NoError(t, store.Posts().Create(ctx, post))

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.Posts().UpdateCapacity(ctx, post.ID, 2, false))
		require.NoError(t, tx.Bookings().Create(ctx, &model.Booking{PostID: post.ID, Status: model.BookingStatusConfirmed}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ApprovedStudent)
	assert.True(t, stored.Visibility)

	count, err := store.Bookings().CountByPostAndStatus(ctx, post.ID, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore(fixedClock)

	post := newPost(1)
	err := store.InTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.LockUser(ctx, 1))
		return tx.Posts().Create(ctx, post)
	})
	require.NoError(t, err)

	stored, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, post.Title, stored.Title)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore(fixedClock)

	post := newPost(1)
	require.NoError(t, store.Posts().Create(ctx, post))

	post.Schedules[0].StartHour = model.NewClock(6, 0)
	got, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NewClock(9, 0), got.Schedules[0].StartHour)

	got.Schedules[0].EndHour = model.NewClock(23, 0)
	again, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NewClock(10, 0), again.Schedules[0].EndHour)
}

func TestUpdateKeepsApprovedStudent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(fixedClock)

	post := newPost(1)
	require.NoError(t, store.Posts().Create(ctx, post))
	require.NoError(t, store.Posts().UpdateCapacity(ctx, post.ID, 1, true))

	post.Title = "Physics for grade 10"
	post.ApprovedStudent = 99
	require.NoError(t, store.Posts().Update(ctx, post))

	stored, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Physics for grade 10", stored.Title)
	assert.Equal(t, 1, stored.ApprovedStudent)
}

func TestListByUserMatchesStudentOrTutor(t *testing.T) {
	ctx := context.Background()
	store := NewStore(fixedClock)

	require.NoError(t, store.Bookings().Create(ctx, &model.Booking{StudentID: 1, TutorID: 2}))
	require.NoError(t, store.Bookings().Create(ctx, &model.Booking{StudentID: 3, TutorID: 1}))
	require.NoError(t, store.Bookings().Create(ctx, &model.Booking{StudentID: 3, TutorID: 2}))

	bookings, err := store.Bookings().ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestUsersGetSequentialIDs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(fixedClock)

	first := &model.User{TelegramID: 100, Role: model.RoleStudent}
	second := &model.User{TelegramID: 200, Role: model.RoleTutor}
	require.NoError(t, store.Users().Create(ctx, first))
	require.NoError(t, store.Users().Create(ctx, second))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	assert.Error(t, store.Users().Create(ctx, &model.User{TelegramID: 100}))

	found, err := store.Users().GetByTelegramID(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTutor, found.Role)
}

func TestDeletePendingKeepsDecidedBookings(t *testing.T) {
	ctx := context.Background()
	store := NewStore(fixedClock)

	pending := &model.Booking{StudentID: 1, TutorID: 2, Status: model.BookingStatusPending}
	confirmed := &model.Booking{StudentID: 1, TutorID: 2, Status: model.BookingStatusConfirmed}
	require.NoError(t, store.Bookings().Create(ctx, pending))
	require.NoError(t, store.Bookings().Create(ctx, confirmed))

	deleted, err := store.Bookings().DeletePending(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	stored, err := store.Bookings().GetByID(ctx, confirmed.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.BookingStatusConfirmed, stored.Status)

	deleted, err = store.Bookings().DeletePending(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Bookings().DeletePending(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestReviewCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewStore(fixedClock)

	booking := &model.Booking{StudentID: 1, TutorID: 2, Status: model.BookingStatusCompleted}
	require.NoError(t, store.Bookings().Create(ctx, booking))

	require.NoError(t, store.Reviews().Create(ctx, &model.Review{BookingID: booking.ID, StudentID: 1, TutorID: 2, Rating: 5}))
	err := store.Reviews().Create(ctx, &model.Review{BookingID: booking.ID, StudentID: 1, TutorID: 2, Rating: 4})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
