package handlers

import (
	"context"

	"github.com/Freeeeeet/tutor_market/internal/controller/callbacks"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCallbackQuery обрабатывает нажатия на inline кнопки
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b Sender, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	msg := query.Message.Message
	if msg == nil {
		h.answerCallback(ctx, b, query.ID, "Сообщение устарело", true)
		return
	}

	data, err := callbacks.Parse(query.Data)
	if err != nil {
		h.logger.Warn("Unknown callback data", zap.String("data", query.Data), zap.Error(err))
		h.answerCallback(ctx, b, query.ID, "Неизвестное действие", true)
		return
	}

	user, ok := h.lookupUser(ctx, b, msg.Chat.ID, query.From.ID)
	if !ok {
		h.answerCallback(ctx, b, query.ID, "", false)
		return
	}

	var text string
	switch data.Action {
	case callbacks.ActionBook:
		text = h.book(ctx, user, data.ID)
	case callbacks.ActionStatus:
		text = h.updateStatus(ctx, user, data.ID, data.Status)
	case callbacks.ActionCancelBooking:
		text = h.cancelBooking(ctx, user, data.ID)
	}

	h.answerCallback(ctx, b, query.ID, "", false)
	h.sendMessage(ctx, b, msg.Chat.ID, text)
}
