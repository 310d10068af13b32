package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossesConfirmed(t *testing.T) {
	tests := []struct {
		from, to model.BookingStatus
		want     bool
	}{
		{model.BookingStatusPending, model.BookingStatusConfirmed, true},
		{model.BookingStatusConfirmed, model.BookingStatusCanceled, true},
		{model.BookingStatusConfirmed, model.BookingStatusCompleted, true},
		{model.BookingStatusConfirmed, model.BookingStatusConfirmed, false},
		{model.BookingStatusPending, model.BookingStatusCanceled, false},
		{model.BookingStatusCompleted, model.BookingStatusCanceled, false},
	}

	for _, tt := range tests {
		ev := BookingEvent{OldStatus: tt.from, NewStatus: tt.to}
		assert.Equal(t, tt.want, ev.CrossesConfirmed(), "%s -> %s", tt.from, tt.to)
	}
}

func TestResyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	post := env.post(t, tutor, 2, slot(time.Monday, "10:00", "11:00"))
	b := env.book(t, env.user(t, model.RoleStudent), post)
	env.setStatus(t, tutor, b, model.BookingStatusConfirmed)

	before := env.reload(t, post)
	for i := 0; i < 3; i++ {
		require.NoError(t, env.capacity.ResyncPostCapacity(ctx, post.ID))
	}
	after := env.reload(t, post)

	assert.Equal(t, before.ApprovedStudent, after.ApprovedStudent)
	assert.Equal(t, before.Visibility, after.Visibility)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestResyncMissingPost(t *testing.T) {
	env := newTestEnv(t)
	err := env.capacity.ResyncPostCapacity(context.Background(), uuid.New())
	requireCode(t, err, apperr.ErrPostNotFound)
}

func TestOnBookingEventIgnoresNonConfirmedTransitions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	post := env.post(t, tutor, 2, slot(time.Monday, "10:00", "11:00"))

	// рассинхрон, который заметит только полный пересчёт
	require.NoError(t, env.store.Posts().UpdateCapacity(ctx, post.ID, 7, true))

	err := env.store.InTx(ctx, func(tx repository.Tx) error {
		return env.capacity.OnBookingEvent(ctx, tx, BookingEvent{
			PostID:    post.ID,
			OldStatus: model.BookingStatusPending,
			NewStatus: model.BookingStatusCanceled,
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 7, env.reload(t, post).ApprovedStudent)
}

func TestReconcileAll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)

	drifted := env.post(t, tutor, 2, slot(time.Monday, "10:00", "11:00"))
	b := env.book(t, env.user(t, model.RoleStudent), drifted)
	env.setStatus(t, tutor, b, model.BookingStatusConfirmed)
	require.NoError(t, env.store.Posts().UpdateCapacity(ctx, drifted.ID, 0, true))

	overbooked := env.post(t, tutor, 1, slot(time.Tuesday, "10:00", "11:00"))
	b = env.book(t, env.user(t, model.RoleStudent), overbooked)
	env.setStatus(t, tutor, b, model.BookingStatusConfirmed)
	require.NoError(t, env.store.Posts().UpdateCapacity(ctx, overbooked.ID, 0, true))

	processed, err := env.capacity.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	fresh := env.reload(t, drifted)
	assert.Equal(t, 1, fresh.ApprovedStudent)
	assert.True(t, fresh.Visibility)

	fresh = env.reload(t, overbooked)
	assert.Equal(t, 1, fresh.ApprovedStudent)
	assert.False(t, fresh.Visibility)
}

func TestReconcileAllStopsOnCanceledContext(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.user(t, model.RoleTutor)
	env.post(t, tutor, 2, slot(time.Monday, "10:00", "11:00"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processed, err := env.capacity.ReconcileAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, processed)
}
