package handlers

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/Freeeeeet/tutor_market/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireAdmin проверяет что пользователь администратор
func (h *Handlers) requireAdmin(ctx context.Context, b Sender, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if err := service.Require(model.CallerOf(user), service.CapAdmin); err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "require admin", err)
		return nil, false
	}
	return user, true
}

// parseUserIDArg первый аргумент как внутренний ID пользователя
func (h *Handlers) parseUserIDArg(ctx context.Context, b Sender, update *models.Update, usage string) (int64, bool) {
	args := commandArgs(update)
	if len(args) == 0 {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "ℹ️ Использование: "+usage)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Неверный ID пользователя.\n\nИспользование: "+usage)
		return 0, false
	}
	return id, true
}

// HandleUsers список пользователей
func (h *Handlers) HandleUsers(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	users, err := h.userService.List(ctx, model.CallerOf(user))
	if err != nil {
		h.sendError(ctx, b, chatID, "list users", err)
		return
	}

	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", u.ID, html.EscapeString(u.DisplayName()), formatting.Role(u.Role)))
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("👥 <b>Пользователи</b> (%d)\n\n%s", len(users), strings.Join(lines, "\n")))
}

// HandleUserBookings записи любого пользователя
func (h *Handlers) HandleUserBookings(ctx context.Context, b Sender, update *models.Update) {
	if _, ok := h.requireAdmin(ctx, b, update); !ok {
		return
	}
	userID, ok := h.parseUserIDArg(ctx, b, update, "/userbookings &lt;id пользователя&gt;")
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	bookings, err := h.bookingService.ListByUser(ctx, userID)
	if err != nil {
		h.sendError(ctx, b, chatID, "list user bookings", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatting.Bookings(bookings))
}

// HandleSetRole меняет роль пользователя: /setrole <id> <роль>
func (h *Handlers) HandleSetRole(ctx context.Context, b Sender, update *models.Update) {
	admin, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}
	usage := "/setrole &lt;id пользователя&gt; &lt;student|tutor|admin&gt;"
	userID, ok := h.parseUserIDArg(ctx, b, update, usage)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update)
	if len(args) < 2 {
		h.sendMessage(ctx, b, chatID, "ℹ️ Использование: "+usage)
		return
	}
	role, valid := model.ParseRole(args[1])
	if !valid {
		h.sendMessage(ctx, b, chatID, "❌ Неизвестная роль.\n\nИспользование: "+usage)
		return
	}

	updated, err := h.userService.SetRole(ctx, model.CallerOf(admin), userID, role)
	if err != nil {
		h.sendError(ctx, b, chatID, "set role", err)
		return
	}

	h.logger.Info("Role changed by admin",
		zap.Int64("admin_id", admin.ID),
		zap.Int64("user_id", updated.ID),
		zap.String("role", string(updated.Role)),
	)
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ %s теперь %s.", html.EscapeString(updated.DisplayName()), formatting.Role(updated.Role)))
}

// HandleResync пересчитывает заполненность одного курса
func (h *Handlers) HandleResync(ctx context.Context, b Sender, update *models.Update) {
	if _, ok := h.requireAdmin(ctx, b, update); !ok {
		return
	}
	postID, ok := h.parseIDArg(ctx, b, update, "/resync &lt;id курса&gt;")
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	if err := h.capacityService.ResyncPostCapacity(ctx, postID); err != nil {
		h.sendError(ctx, b, chatID, "resync post capacity", err)
		return
	}

	post, err := h.postService.Get(ctx, postID)
	if err != nil {
		h.sendError(ctx, b, chatID, "get post", err)
		return
	}
	h.sendMessage(ctx, b, chatID, "🔄 Пересчитано.\n\n"+formatting.Post(post))
}

// HandleReconcile пересчитывает заполненность всех курсов
func (h *Handlers) HandleReconcile(ctx context.Context, b Sender, update *models.Update) {
	if _, ok := h.requireAdmin(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	count, err := h.capacityService.ReconcileAll(ctx)
	if err != nil {
		h.sendError(ctx, b, chatID, "reconcile capacity", err)
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🔄 Пересчитано курсов: %d", count))
}
