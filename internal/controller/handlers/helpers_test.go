package handlers

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/controller/state"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository/memory"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type sentMessage struct {
	chatID int64
	text   string
	markup *models.InlineKeyboardMarkup
}

// fakeSender запоминает всё, что бот отправил бы в Telegram
type fakeSender struct {
	mu       sync.Mutex
	messages []sentMessage
	photos   []int64
	answers  []*bot.AnswerCallbackQueryParams
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg := sentMessage{chatID: params.ChatID.(int64), text: params.Text}
	if markup, ok := params.ReplyMarkup.(*models.InlineKeyboardMarkup); ok {
		msg.markup = markup
	}
	f.messages = append(f.messages, msg)
	return &models.Message{ID: len(f.messages)}, nil
}

func (f *fakeSender) SendPhoto(_ context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, params.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, params)
	return true, nil
}

// last последнее сообщение в чат
func (f *fakeSender) last(t *testing.T, chatID int64) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].chatID == chatID {
			return f.messages[i]
		}
	}
	t.Fatalf("no messages sent to chat %d", chatID)
	return sentMessage{}
}

type testEnv struct {
	sender   *fakeSender
	store    *memory.Store
	users    *service.UserService
	posts    *service.PostService
	bookings *service.BookingService
	states   *state.Manager
	h        *Handlers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	sender := &fakeSender{}
	store := memory.NewStore(testClock)
	states := state.NewManager()

	capacity := service.NewCapacityService(store, logger)
	users := service.NewUserService(store, logger)
	notifier := NewNotifier(sender, users, logger)
	posts := service.NewPostService(store, capacity, testClock, logger)
	bookings := service.NewBookingService(store, capacity, notifier, testClock, logger)
	reviews := service.NewReviewService(store, logger)

	return &testEnv{
		sender:   sender,
		store:    store,
		users:    users,
		posts:    posts,
		bookings: bookings,
		states:   states,
		h:        NewHandlers(users, posts, bookings, reviews, capacity, states, testClock, logger),
	}
}

func textUpdate(telegramID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			From: &models.User{ID: telegramID, FirstName: "Test"},
			Chat: models.Chat{ID: telegramID},
			Text: text,
		},
	}
}

func callbackUpdate(telegramID int64, data string) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "callback",
			From: models.User{ID: telegramID},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{Chat: models.Chat{ID: telegramID}},
			},
		},
	}
}

// say отправляет текст от имени пользователя
func (e *testEnv) say(telegramID int64, text string) {
	e.h.HandleTextMessage(context.Background(), e.sender, textUpdate(telegramID, text))
}

func (e *testEnv) press(telegramID int64, data string) {
	e.h.HandleCallbackQuery(context.Background(), e.sender, callbackUpdate(telegramID, data))
}

// register регистрирует пользователя через /start и выставляет роль напрямую
func (e *testEnv) register(t *testing.T, telegramID int64, role model.Role) *model.User {
	t.Helper()
	e.say(telegramID, "/start")

	user, err := e.users.GetByTelegramID(context.Background(), telegramID)
	require.NoError(t, err)
	require.NotNil(t, user)

	if role != user.Role {
		require.NoError(t, e.store.Users().UpdateRole(context.Background(), user.ID, role))
		user.Role = role
	}
	return user
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
