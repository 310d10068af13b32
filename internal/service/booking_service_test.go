package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingCreate_SnapshotsPost(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 3, slot(time.Monday, "10:00", "12:00"))

	booking := env.book(t, student, post)

	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Equal(t, tutor.UserID, booking.TutorID)
	assert.Equal(t, student.UserID, booking.StudentID)
	assert.Equal(t, post.Subject, booking.Subject)
	assert.Equal(t, post.Schedules, booking.Schedules)
	assert.Equal(t, []BookingEventType{EventBookingCreated}, env.publisher.types())

	// pending не занимает место
	assert.Equal(t, 0, env.reload(t, post).ApprovedStudent)
}

func TestBookingCreate_Eligibility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)

	t.Run("not a student", func(t *testing.T) {
		post := env.post(t, tutor, 1, slot(time.Sunday, "08:00", "09:00"))
		_, err := env.bookings.Create(ctx, tutor, post.ID)
		requireCode(t, err, apperr.ErrNotStudent)
		assert.Equal(t, apperr.KindRole, apperr.KindOf(err))
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := env.bookings.Create(ctx, student, uuid.New())
		requireCode(t, err, apperr.ErrPostNotFound)
	})

	t.Run("hidden post", func(t *testing.T) {
		in := postInput(1, slot(time.Tuesday, "08:00", "09:00"))
		hidden := false
		in.Visibility = &hidden
		post, err := env.posts.Create(ctx, tutor, in)
		require.NoError(t, err)

		_, err = env.bookings.Create(ctx, student, post.ID)
		requireCode(t, err, apperr.ErrPostNotAvailable)
	})

	t.Run("full but still visible", func(t *testing.T) {
		post := env.post(t, tutor, 1, slot(time.Wednesday, "08:00", "09:00"))
		require.NoError(t, env.store.Posts().UpdateCapacity(ctx, post.ID, 1, true))

		_, err := env.bookings.Create(ctx, student, post.ID)
		requireCode(t, err, apperr.ErrPostFull)
	})

	t.Run("ended post", func(t *testing.T) {
		post := env.post(t, tutor, 1, slot(time.Thursday, "08:00", "09:00"))
		post.StartTime = testNow.Add(-60 * 24 * time.Hour)
		post.EndTime = testNow.Add(-24 * time.Hour)
		require.NoError(t, env.store.Posts().Update(ctx, post))

		_, err := env.bookings.Create(ctx, student, post.ID)
		requireCode(t, err, apperr.ErrPostEnded)
	})
}

func TestBookingCreate_StudentOverlap(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutorA := env.user(t, model.RoleTutor)
	tutorB := env.user(t, model.RoleTutor)
	tutorC := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)

	first := env.post(t, tutorA, 5, slot(time.Monday, "10:00", "12:00"))
	overlapping := env.post(t, tutorB, 5, slot(time.Monday, "11:00", "13:00"))
	backToBack := env.post(t, tutorC, 5, slot(time.Monday, "12:00", "14:00"))

	booking := env.book(t, student, first)

	_, err := env.bookings.Create(ctx, student, overlapping.ID)
	requireCode(t, err, apperr.ErrScheduleOverlap)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// касание границ не считается пересечением
	adjacent, err := env.bookings.Create(ctx, student, backToBack.ID)
	require.NoError(t, err)
	require.NoError(t, env.bookings.Delete(ctx, student, adjacent.ID))

	// отменённая запись больше не мешает
	env.setStatus(t, tutorA, booking, model.BookingStatusCanceled)
	_, err = env.bookings.Create(ctx, student, overlapping.ID)
	require.NoError(t, err)
}

func TestBookingCreate_IgnoresBookingsOfDeletedPosts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutorA := env.user(t, model.RoleTutor)
	tutorB := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)

	first := env.post(t, tutorA, 5, slot(time.Friday, "10:00", "12:00"))
	env.book(t, student, first)
	require.NoError(t, env.posts.Delete(ctx, tutorA, first.ID))

	second := env.post(t, tutorB, 5, slot(time.Friday, "11:00", "12:00"))
	_, err := env.bookings.Create(ctx, student, second.ID)
	require.NoError(t, err)
}

func TestCapacity_FullPostClosesAndNeverReopens(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	s1 := env.user(t, model.RoleStudent)
	s2 := env.user(t, model.RoleStudent)
	s3 := env.user(t, model.RoleStudent)

	post := env.post(t, tutor, 1, slot(time.Tuesday, "16:00", "17:30"))
	b1 := env.book(t, s1, post)
	b2 := env.book(t, s2, post)

	env.setStatus(t, tutor, b1, model.BookingStatusConfirmed)

	fresh := env.reload(t, post)
	assert.Equal(t, 1, fresh.ApprovedStudent)
	assert.False(t, fresh.Visibility)

	_, err := env.bookings.Create(ctx, s3, post.ID)
	requireCode(t, err, apperr.ErrPostNotAvailable)

	// подтверждение сверх лимита разрешено, пост остаётся закрытым
	env.setStatus(t, tutor, b2, model.BookingStatusConfirmed)
	fresh = env.reload(t, post)
	assert.Equal(t, 2, fresh.ApprovedStudent)
	assert.False(t, fresh.Visibility)

	env.setStatus(t, tutor, b1, model.BookingStatusCanceled)
	env.setStatus(t, tutor, b2, model.BookingStatusCompleted)

	fresh = env.reload(t, post)
	assert.Equal(t, 0, fresh.ApprovedStudent)
	assert.False(t, fresh.Visibility, "resync must never reopen a post")
}

func TestCapacity_ApprovedMatchesConfirmedCount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	post := env.post(t, tutor, 10, slot(time.Saturday, "09:00", "11:00"))

	var bookings []*model.Booking
	for i := 0; i < 5; i++ {
		bookings = append(bookings, env.book(t, env.user(t, model.RoleStudent), post))
	}

	steps := []struct {
		idx    int
		status model.BookingStatus
	}{
		{0, model.BookingStatusConfirmed},
		{1, model.BookingStatusConfirmed},
		{2, model.BookingStatusConfirmed},
		{1, model.BookingStatusCanceled},
		{3, model.BookingStatusCompleted},
		{0, model.BookingStatusConfirmed},
		{4, model.BookingStatusConfirmed},
		{2, model.BookingStatusPending},
	}

	for _, step := range steps {
		env.setStatus(t, tutor, bookings[step.idx], step.status)

		confirmed, err := env.store.Bookings().CountByPostAndStatus(ctx, post.ID, model.BookingStatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, confirmed, env.reload(t, post).ApprovedStudent)
	}
	assert.True(t, env.reload(t, post).Visibility)
}

func TestCapacity_ConcurrentConfirmations(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	post := env.post(t, tutor, 20, slot(time.Thursday, "18:00", "19:00"))

	var bookings []*model.Booking
	for i := 0; i < 20; i++ {
		bookings = append(bookings, env.book(t, env.user(t, model.RoleStudent), post))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(bookings))
	for _, b := range bookings {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := env.bookings.UpdateStatus(context.Background(), tutor, id, model.BookingStatusConfirmed)
			errs <- err
		}(b.ID)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	fresh := env.reload(t, post)
	assert.Equal(t, 20, fresh.ApprovedStudent)
	assert.False(t, fresh.Visibility)
}

func TestBookingUpdateStatus_Checks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	otherTutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 2, slot(time.Monday, "08:00", "09:00"))
	booking := env.book(t, student, post)

	_, err := env.bookings.UpdateStatus(ctx, tutor, booking.ID, model.BookingStatus("DONE"))
	requireCode(t, err, apperr.ErrValidation)

	_, err = env.bookings.UpdateStatus(ctx, student, booking.ID, model.BookingStatusConfirmed)
	requireCode(t, err, apperr.ErrNotTutor)

	_, err = env.bookings.UpdateStatus(ctx, tutor, uuid.New(), model.BookingStatusConfirmed)
	requireCode(t, err, apperr.ErrBookingNotFound)

	_, err = env.bookings.UpdateStatus(ctx, otherTutor, booking.ID, model.BookingStatusConfirmed)
	requireCode(t, err, apperr.ErrNotBookingTutor)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	updated, err := env.bookings.UpdateStatus(ctx, tutor, booking.ID, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, updated.Status)

	// без графа переходов: из CONFIRMED обратно в PENDING тоже можно
	updated, err = env.bookings.UpdateStatus(ctx, tutor, booking.ID, model.BookingStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, updated.Status)
	assert.Equal(t, 0, env.reload(t, post).ApprovedStudent)
}

func TestBookingUpdateStatus_PostDeleted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 2, slot(time.Monday, "08:00", "09:00"))
	booking := env.book(t, student, post)

	require.NoError(t, env.posts.Delete(ctx, tutor, post.ID))

	updated, err := env.bookings.UpdateStatus(ctx, tutor, booking.ID, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, updated.Status)
}

func TestBookingUpdateStatus_Events(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 2, slot(time.Monday, "08:00", "09:00"))
	booking := env.book(t, student, post)

	env.setStatus(t, tutor, booking, model.BookingStatusConfirmed)

	require.Len(t, env.publisher.events, 2)
	ev := env.publisher.events[1]
	assert.Equal(t, EventBookingStatusChanged, ev.Type)
	assert.Equal(t, model.BookingStatusPending, ev.OldStatus)
	assert.Equal(t, model.BookingStatusConfirmed, ev.NewStatus)
	assert.True(t, ev.CrossesConfirmed())
	assert.Equal(t, post.ID, ev.PostID)
}

func TestBookingPublishFailureDoesNotFailOperation(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("redis unavailable")
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 1, slot(time.Monday, "08:00", "09:00"))

	booking := env.book(t, student, post)
	env.setStatus(t, tutor, booking, model.BookingStatusConfirmed)

	assert.Equal(t, 1, env.reload(t, post).ApprovedStudent)
}

func TestBookingDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	other := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 3, slot(time.Monday, "08:00", "09:00"))

	t.Run("pending booking is removed", func(t *testing.T) {
		booking := env.book(t, student, post)
		require.NoError(t, env.bookings.Delete(ctx, student, booking.ID))

		stored, err := env.store.Bookings().GetByID(ctx, booking.ID)
		require.NoError(t, err)
		assert.Nil(t, stored)
		assert.Equal(t, 0, env.reload(t, post).ApprovedStudent)
	})

	t.Run("confirmed booking stays", func(t *testing.T) {
		booking := env.book(t, student, post)
		env.setStatus(t, tutor, booking, model.BookingStatusConfirmed)

		err := env.bookings.Delete(ctx, student, booking.ID)
		requireCode(t, err, apperr.ErrNotPendingStatus)

		stored, err := env.store.Bookings().GetByID(ctx, booking.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored)
		assert.Equal(t, 1, env.reload(t, post).ApprovedStudent)
	})

	t.Run("foreign booking", func(t *testing.T) {
		booking := env.book(t, other, post)
		requireCode(t, env.bookings.Delete(ctx, student, booking.ID), apperr.ErrNotBookingOwner)
	})

	t.Run("tutor cannot delete", func(t *testing.T) {
		requireCode(t, env.bookings.Delete(ctx, tutor, uuid.New()), apperr.ErrNotStudent)
	})

	t.Run("missing booking", func(t *testing.T) {
		requireCode(t, env.bookings.Delete(ctx, student, uuid.New()), apperr.ErrBookingNotFound)
	})
}

func TestBookingSnapshotSurvivesPostUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 3, slot(time.Monday, "10:00", "11:00"))
	booking := env.book(t, student, post)

	subject := "Geometry"
	_, err := env.posts.Update(ctx, tutor, post.ID, UpdatePostInput{
		Subject:   &subject,
		Schedules: []model.Schedule{slot(time.Tuesday, "15:00", "16:00")},
	})
	require.NoError(t, err)

	stored, err := env.store.Bookings().GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Math", stored.Subject)
	assert.Equal(t, []model.Schedule{slot(time.Monday, "10:00", "11:00")}, stored.Schedules)

	// пересечения считаются по снимку, а не по новому расписанию поста
	tutorB := env.user(t, model.RoleTutor)
	monday := env.post(t, tutorB, 3, slot(time.Monday, "10:30", "11:30"))
	_, err = env.bookings.Create(ctx, student, monday.ID)
	requireCode(t, err, apperr.ErrScheduleOverlap)
}

func TestBookingListing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	student := env.user(t, model.RoleStudent)
	admin := env.user(t, model.RoleAdmin)
	outsider := env.user(t, model.RoleStudent)
	post := env.post(t, tutor, 3, slot(time.Monday, "10:00", "11:00"))
	booking := env.book(t, student, post)

	list, err := env.bookings.ListForCaller(ctx, student)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, booking.ID, list[0].ID)

	list, err = env.bookings.ListForCaller(ctx, tutor)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.bookings.ListForCaller(ctx, admin)
	requireCode(t, err, apperr.ErrInvalidRole)

	list, err = env.bookings.ListByUser(ctx, tutor.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.bookings.ListByUser(ctx, 9999)
	requireCode(t, err, apperr.ErrUserNotFound)

	got, err := env.bookings.Get(ctx, admin, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	_, err = env.bookings.Get(ctx, outsider, booking.ID)
	requireCode(t, err, apperr.ErrNotBookingMember)
}
