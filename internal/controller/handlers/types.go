package handlers

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/controller/state"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender часть API бота, которой пользуются обработчики. *bot.Bot её реализует.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// HandlerFunc обработчик команды
type HandlerFunc func(ctx context.Context, b Sender, update *models.Update)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService     *service.UserService
	postService     *service.PostService
	bookingService  *service.BookingService
	reviewService   *service.ReviewService
	capacityService *service.CapacityService
	stateManager    *state.Manager
	now             func() time.Time
	logger          *zap.Logger

	commands map[string]HandlerFunc
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	postService *service.PostService,
	bookingService *service.BookingService,
	reviewService *service.ReviewService,
	capacityService *service.CapacityService,
	stateManager *state.Manager,
	now func() time.Time,
	logger *zap.Logger,
) *Handlers {
	if now == nil {
		now = time.Now
	}

	h := &Handlers{
		userService:     userService,
		postService:     postService,
		bookingService:  bookingService,
		reviewService:   reviewService,
		capacityService: capacityService,
		stateManager:    stateManager,
		now:             now,
		logger:          logger,
	}

	h.commands = map[string]HandlerFunc{
		"/start":  h.HandleStart,
		"/help":   h.HandleHelp,
		"/cancel": h.HandleCancel,
		"/role":   h.HandleRole,

		// Ученик
		"/posts":         h.HandlePosts,
		"/post":          h.HandlePost,
		"/book":          h.HandleBook,
		"/mybookings":    h.HandleMyBookings,
		"/cancelbooking": h.HandleCancelBooking,
		"/review":        h.HandleReview,
		"/reviews":       h.HandleReviews,
		"/week":          h.HandleWeek,

		// Репетитор
		"/newpost":  h.HandleNewPostStart,
		"/myposts":  h.HandleMyPosts,
		"/status":   h.HandleStatus,
		"/hidepost": h.HandleHidePost,
		"/showpost": h.HandleShowPost,
		"/capacity": h.HandleCapacity,

		// Общие для владельца и администратора
		"/deletepost": h.HandleDeletePost,

		// Администратор
		"/users":        h.HandleUsers,
		"/userbookings": h.HandleUserBookings,
		"/setrole":      h.HandleSetRole,
		"/resync":       h.HandleResync,
		"/reconcile":    h.HandleReconcile,
	}

	return h
}
