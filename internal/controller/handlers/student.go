package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/tutor_market/internal/controller/callbacks"
	"github.com/Freeeeeet/tutor_market/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_market/internal/controller/keyboard"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/render"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxListedPosts = 20

// HandlePosts показывает открытые для записи курсы с кнопками записи
func (h *Handlers) HandlePosts(ctx context.Context, b Sender, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	posts, err := h.postService.ListAvailable(ctx)
	if err != nil {
		h.sendError(ctx, b, chatID, "list available posts", err)
		return
	}

	if len(posts) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Сейчас нет открытых курсов.")
		return
	}

	if len(posts) > maxListedPosts {
		posts = posts[:maxListedPosts]
	}

	var text strings.Builder
	text.WriteString("📚 <b>Открытые курсы</b>\n\n")

	kb := keyboard.NewBuilder()
	for i, post := range posts {
		text.WriteString(formatting.PostShort(post, i+1))
		text.WriteString("\n\n")
		kb.Row(keyboard.Button(fmt.Sprintf("📝 Записаться на %d", i+1), callbacks.Book(post.ID)))
	}

	h.sendHTML(ctx, b, chatID, text.String(), kb.Build())
}

// HandlePost показывает карточку курса
func (h *Handlers) HandlePost(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	postID, ok := h.parseIDArg(ctx, b, update, "/post &lt;id курса&gt;")
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	post, err := h.postService.Get(ctx, postID)
	if err != nil {
		h.sendError(ctx, b, chatID, "get post", err)
		return
	}

	kb := keyboard.NewBuilder()
	if user.Role == model.RoleStudent && post.Live(h.now()) && !post.IsFull() {
		kb.Row(keyboard.Button("📝 Записаться", callbacks.Book(post.ID)))
	}

	h.sendHTML(ctx, b, chatID, formatting.Post(post), kb.Build())
}

// HandleBook записывает ученика на курс командой /book <id>
func (h *Handlers) HandleBook(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	postID, ok := h.parseIDArg(ctx, b, update, "/book &lt;id курса&gt;")
	if !ok {
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, h.book(ctx, user, postID))
}

// book общая часть для команды и кнопки, возвращает текст ответа
func (h *Handlers) book(ctx context.Context, user *model.User, postID uuid.UUID) string {
	booking, err := h.bookingService.Create(ctx, model.CallerOf(user), postID)
	if err != nil {
		h.logRejected("create booking", err)
		return formatting.ErrorText(err)
	}

	return "✅ Заявка отправлена репетитору.\n\n" + formatting.Booking(booking)
}

// HandleMyBookings показывает записи пользователя с кнопками действий
func (h *Handlers) HandleMyBookings(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	bookings, err := h.bookingService.ListForCaller(ctx, model.CallerOf(user))
	if err != nil {
		h.sendError(ctx, b, chatID, "list bookings", err)
		return
	}

	if len(bookings) == 0 {
		h.sendMessage(ctx, b, chatID, formatting.Bookings(nil))
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("📅 <b>Ваши записи</b> (%d)", len(bookings)))
	for _, booking := range bookings {
		h.sendHTML(ctx, b, chatID, formatting.Booking(booking), bookingKeyboard(user, booking))
	}
}

// bookingKeyboard кнопки, доступные пользователю для записи
func bookingKeyboard(user *model.User, booking *model.Booking) *models.InlineKeyboardMarkup {
	kb := keyboard.NewBuilder()

	switch {
	case user.ID == booking.TutorID && booking.Status == model.BookingStatusPending:
		kb.Row(
			keyboard.Button("✅ Подтвердить", callbacks.Status(booking.ID, model.BookingStatusConfirmed)),
			keyboard.Button("❌ Отклонить", callbacks.Status(booking.ID, model.BookingStatusCanceled)),
		)
	case user.ID == booking.TutorID && booking.Status == model.BookingStatusConfirmed:
		kb.Row(
			keyboard.Button("✔️ Завершить", callbacks.Status(booking.ID, model.BookingStatusCompleted)),
			keyboard.Button("❌ Отменить", callbacks.Status(booking.ID, model.BookingStatusCanceled)),
		)
	case user.ID == booking.StudentID && booking.Status == model.BookingStatusPending:
		kb.Row(keyboard.Button("🗑 Отозвать заявку", callbacks.CancelBooking(booking.ID)))
	}

	return kb.Build()
}

// HandleCancelBooking удаляет ожидающую заявку ученика
func (h *Handlers) HandleCancelBooking(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	bookingID, ok := h.parseIDArg(ctx, b, update, "/cancelbooking &lt;id записи&gt;")
	if !ok {
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, h.cancelBooking(ctx, user, bookingID))
}

func (h *Handlers) cancelBooking(ctx context.Context, user *model.User, bookingID uuid.UUID) string {
	if err := h.bookingService.Delete(ctx, model.CallerOf(user), bookingID); err != nil {
		h.logRejected("delete booking", err)
		return formatting.ErrorText(err)
	}
	return "🗑 Заявка отозвана."
}

// HandleReview оставляет отзыв: /review <id записи> <1-5> [комментарий]
func (h *Handlers) HandleReview(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	usage := "/review &lt;id записи&gt; &lt;1-5&gt; [комментарий]"

	args := commandArgs(update)
	if len(args) < 2 {
		h.sendMessage(ctx, b, chatID, "ℹ️ Использование: "+usage)
		return
	}

	bookingID, err := parseUUID(args[0])
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Неверный идентификатор записи.\n\nИспользование: "+usage)
		return
	}

	rating, err := strconv.ParseFloat(strings.ReplaceAll(args[1], ",", "."), 32)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Оценка должна быть числом от 1 до 5.")
		return
	}

	review, err := h.reviewService.Create(ctx, model.CallerOf(user), service.CreateReviewInput{
		BookingID: bookingID,
		Rating:    float32(rating),
		Comment:   strings.Join(args[2:], " "),
	})
	if err != nil {
		h.sendError(ctx, b, chatID, "create review", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Спасибо за отзыв!\n\n"+formatting.Review(review))
}

// HandleReviews показывает отзывы о репетиторе и средний рейтинг
func (h *Handlers) HandleReviews(ctx context.Context, b Sender, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update)
	if len(args) == 0 {
		h.sendMessage(ctx, b, chatID, "ℹ️ Использование: /reviews &lt;id репетитора&gt;")
		return
	}
	tutorID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Неверный идентификатор репетитора.")
		return
	}

	reviews, err := h.reviewService.ListByTutor(ctx, tutorID)
	if err != nil {
		h.sendError(ctx, b, chatID, "list reviews", err)
		return
	}

	if len(reviews) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Отзывов пока нет.")
		return
	}

	lines := make([]string, 0, len(reviews))
	for _, review := range reviews {
		lines = append(lines, formatting.Review(review))
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"⭐️ <b>Рейтинг: %.1f</b> (%d)\n\n%s",
		service.AverageRating(reviews), len(reviews), strings.Join(lines, "\n"),
	))
}

// HandleWeek рисует неделю: ученику его записи, репетитору его курсы
func (h *Handlers) HandleWeek(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	now := h.now()

	var (
		blocks []render.Block
		title  string
	)

	if user.Role == model.RoleTutor {
		posts, err := h.postService.ListByOwner(ctx, user.ID)
		if err != nil {
			h.sendError(ctx, b, chatID, "list own posts", err)
			return
		}
		blocks = render.PostBlocks(posts, now)
		title = "Мои курсы"
	} else {
		bookings, err := h.bookingService.ListForCaller(ctx, model.CallerOf(user))
		if err != nil {
			h.sendError(ctx, b, chatID, "list bookings", err)
			return
		}
		blocks = render.BookingBlocks(bookings)
		title = "Мои занятия"
	}

	if len(blocks) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 На этой неделе занятий нет.")
		return
	}

	image, err := render.WeekImage(title, blocks, now)
	if err != nil {
		h.logger.Error("Failed to render week image", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ Не удалось нарисовать расписание.")
		return
	}

	h.sendPhoto(ctx, b, chatID, image, "🗓 <b>"+title+"</b>")
}
