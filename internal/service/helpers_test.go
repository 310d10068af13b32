package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/Freeeeeet/tutor_market/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type recordingPublisher struct {
	mu     sync.Mutex
	events []BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []BookingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]BookingEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	store     *memory.Store
	publisher *recordingPublisher
	capacity  *CapacityService
	posts     *PostService
	bookings  *BookingService
	reviews   *ReviewService
	users     *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore(testClock)
	return newTestEnvOn(store, store)
}

// newTestEnvOn собирает сервисы поверх services; data нужен для прямых чтений в тестах
func newTestEnvOn(data *memory.Store, services repository.Store) *testEnv {
	logger := zap.NewNop()
	publisher := &recordingPublisher{}
	capacity := NewCapacityService(services, logger)

	return &testEnv{
		store:     data,
		publisher: publisher,
		capacity:  capacity,
		posts:     NewPostService(services, capacity, testClock, logger),
		bookings:  NewBookingService(services, capacity, publisher, testClock, logger),
		reviews:   NewReviewService(services, logger),
		users:     NewUserService(services, logger),
	}
}

var telegramSeq atomic.Int64

func (e *testEnv) user(t *testing.T, role model.Role) model.Caller {
	t.Helper()
	u := &model.User{TelegramID: telegramSeq.Add(1), Username: "user", Role: role}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return model.CallerOf(u)
}

func slot(day time.Weekday, start, end string) model.Schedule {
	s, err := model.ParseClock(start)
	if err != nil {
		panic(err)
	}
	en, err := model.ParseClock(end)
	if err != nil {
		panic(err)
	}
	return model.Schedule{Weekday: day, StartHour: s, EndHour: en}
}

func postInput(maxStudent int, schedules ...model.Schedule) CreatePostInput {
	return CreatePostInput{
		Title:       "Algebra for grade 8",
		Description: "Linear equations and inequalities",
		Subject:     "Math",
		Location:    "Online",
		Grade:       "8",
		Schedules:   schedules,
		StartTime:   testNow.Add(24 * time.Hour),
		EndTime:     testNow.Add(90 * 24 * time.Hour),
		MaxStudent:  maxStudent,
	}
}

func (e *testEnv) post(t *testing.T, tutor model.Caller, maxStudent int, schedules ...model.Schedule) *model.Post {
	t.Helper()
	post, err := e.posts.Create(context.Background(), tutor, postInput(maxStudent, schedules...))
	require.NoError(t, err)
	return post
}

func (e *testEnv) book(t *testing.T, student model.Caller, post *model.Post) *model.Booking {
	t.Helper()
	booking, err := e.bookings.Create(context.Background(), student, post.ID)
	require.NoError(t, err)
	return booking
}

func (e *testEnv) setStatus(t *testing.T, tutor model.Caller, booking *model.Booking, status model.BookingStatus) {
	t.Helper()
	_, err := e.bookings.UpdateStatus(context.Background(), tutor, booking.ID, status)
	require.NoError(t, err)
}

func (e *testEnv) reload(t *testing.T, post *model.Post) *model.Post {
	t.Helper()
	fresh, err := e.store.Posts().GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	return fresh
}

func requireCode(t *testing.T, err error, target error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, target), "expected %v, got %v", target, err)
}
