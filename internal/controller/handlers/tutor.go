package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/tutor_market/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// HandleMyPosts показывает курсы репетитора
func (h *Handlers) HandleMyPosts(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	if err := service.Require(model.CallerOf(user), service.CapCreatePost); err != nil {
		h.sendError(ctx, b, chatID, "list own posts", err)
		return
	}

	posts, err := h.postService.ListByOwner(ctx, user.ID)
	if err != nil {
		h.sendError(ctx, b, chatID, "list own posts", err)
		return
	}

	if len(posts) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 У вас пока нет курсов.\n\nСоздать: /newpost")
		return
	}

	var text strings.Builder
	text.WriteString("📝 <b>Мои курсы</b>\n\n")
	for i, post := range posts {
		text.WriteString(formatting.PostShort(post, i+1))
		text.WriteString("\n\n")
	}
	h.sendMessage(ctx, b, chatID, text.String())
}

// HandleStatus меняет статус записи: /status <id записи> <STATUS>
func (h *Handlers) HandleStatus(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	usage := "/status &lt;id записи&gt; &lt;CONFIRMED|CANCELED|COMPLETED&gt;"

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

	status := model.BookingStatus(strings.ToUpper(args[1]))
	h.sendMessage(ctx, b, chatID, h.updateStatus(ctx, user, bookingID, status))
}

func (h *Handlers) updateStatus(ctx context.Context, user *model.User, bookingID uuid.UUID, status model.BookingStatus) string {
	booking, err := h.bookingService.UpdateStatus(ctx, model.CallerOf(user), bookingID, status)
	if err != nil {
		h.logRejected("update booking status", err)
		return formatting.ErrorText(err)
	}
	return "✅ Статус обновлён.\n\n" + formatting.Booking(booking)
}

// HandleHidePost закрывает запись на курс
func (h *Handlers) HandleHidePost(ctx context.Context, b Sender, update *models.Update) {
	h.setVisibility(ctx, b, update, false)
}

// HandleShowPost открывает запись на курс, если есть свободные места
func (h *Handlers) HandleShowPost(ctx context.Context, b Sender, update *models.Update) {
	h.setVisibility(ctx, b, update, true)
}

func (h *Handlers) setVisibility(ctx context.Context, b Sender, update *models.Update, visible bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	usage := "/hidepost &lt;id курса&gt;"
	if visible {
		usage = "/showpost &lt;id курса&gt;"
	}
	postID, ok := h.parseIDArg(ctx, b, update, usage)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	post, err := h.postService.Update(ctx, model.CallerOf(user), postID, service.UpdatePostInput{Visibility: &visible})
	if err != nil {
		h.sendError(ctx, b, chatID, "update post visibility", err)
		return
	}

	text := "⏸ Запись на курс закрыта."
	switch {
	case post.Visibility:
		text = "🟢 Запись на курс открыта."
	case visible:
		text = "🔴 Все места заняты, курс остаётся закрытым."
	}
	h.sendMessage(ctx, b, chatID, text+"\n\n"+formatting.Post(post))
}

// HandleCapacity меняет число мест: /capacity <id курса> <мест>
func (h *Handlers) HandleCapacity(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	usage := "/capacity &lt;id курса&gt; &lt;мест&gt;"

	args := commandArgs(update)
	if len(args) < 2 {
		h.sendMessage(ctx, b, chatID, "ℹ️ Использование: "+usage)
		return
	}

	postID, err := parseUUID(args[0])
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Неверный идентификатор курса.\n\nИспользование: "+usage)
		return
	}
	maxStudent, err := strconv.Atoi(args[1])
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Число мест должно быть целым числом.")
		return
	}

	post, err := h.postService.Update(ctx, model.CallerOf(user), postID, service.UpdatePostInput{MaxStudent: &maxStudent})
	if err != nil {
		h.sendError(ctx, b, chatID, "update post capacity", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Мест: %d.\n\n%s", post.MaxStudent, formatting.Post(post)))
}

// HandleDeletePost удаляет курс. Доступно владельцу и администратору.
func (h *Handlers) HandleDeletePost(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	postID, ok := h.parseIDArg(ctx, b, update, "/deletepost &lt;id курса&gt;")
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	if err := h.postService.Delete(ctx, model.CallerOf(user), postID); err != nil {
		h.sendError(ctx, b, chatID, "delete post", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "🗑 Курс удалён. Записи на него сохранены.")
}
