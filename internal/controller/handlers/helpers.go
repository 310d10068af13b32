package handlers

import (
	"bytes"
	"context"
	"strings"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/controller/formatting"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// parseCommand делит "/book@tutor_bot abc" на "/book" и ["abc"]
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}

	command := strings.ToLower(fields[0])
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return command, fields[1:]
}

// commandArgs аргументы команды из сообщения
func commandArgs(update *models.Update) []string {
	_, args := parseCommand(update.Message.Text)
	return args
}

// parseIDArg разбирает первый аргумент как UUID и подсказывает формат при ошибке
func (h *Handlers) parseIDArg(ctx context.Context, b Sender, update *models.Update, usage string) (uuid.UUID, bool) {
	args := commandArgs(update)
	if len(args) == 0 {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "ℹ️ Использование: "+usage)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Неверный идентификатор.\n\nИспользование: "+usage)
		return uuid.Nil, false
	}
	return id, true
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b Sender, chatID int64, text string) {
	h.sendHTML(ctx, b, chatID, text, nil)
}

// sendHTML отправляет HTML сообщение, клавиатура прикладывается только если она есть
func (h *Handlers) sendHTML(ctx context.Context, b Sender, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (h *Handlers) sendPhoto(ctx context.Context, b Sender, chatID int64, image []byte, caption string) {
	_, err := b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(image)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		h.logger.Error("Failed to send photo",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendError показывает пользователю текст бизнес-ошибки.
// Инфраструктурные ошибки логируются, пользователь видит общее сообщение.
func (h *Handlers) sendError(ctx context.Context, b Sender, chatID int64, op string, err error) {
	h.logRejected(op, err)
	h.sendMessage(ctx, b, chatID, formatting.ErrorText(err))
}

func (h *Handlers) answerCallback(ctx context.Context, b Sender, callbackID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// logRejected логирует ошибку, текст которой вернётся пользователю отдельно
func (h *Handlers) logRejected(op string, err error) {
	if apperr.KindOf(err) == "" {
		h.logger.Error("Handler failed", zap.String("op", op), zap.Error(err))
		return
	}
	h.logger.Debug("Business rule rejected request",
		zap.String("op", op),
		zap.String("code", apperr.Code(err)),
	)
}
