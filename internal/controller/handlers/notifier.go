package handlers

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/tutor_market/internal/controller/callbacks"
	"github.com/Freeeeeet/tutor_market/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_market/internal/controller/keyboard"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender отправка сообщений без контекста апдейта
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserLookup поиск получателя уведомления
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Notifier сообщает участникам записи об её изменениях в Telegram
type Notifier struct {
	sender MessageSender
	users  UserLookup
	logger *zap.Logger
}

func NewNotifier(sender MessageSender, users UserLookup, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

// Publish реализует service.EventPublisher
func (n *Notifier) Publish(ctx context.Context, event service.BookingEvent) error {
	var (
		recipientID int64
		text        string
		markup      *models.InlineKeyboardMarkup
	)

	subject := html.EscapeString(event.Subject)

	switch event.Type {
	case service.EventBookingCreated:
		recipientID = event.TutorID
		text = fmt.Sprintf("📬 Новая заявка на курс <b>%s</b>\n\n<code>%s</code>", subject, event.BookingID)
		markup = keyboard.NewBuilder().Row(
			keyboard.Button("✅ Подтвердить", callbacks.Status(event.BookingID, model.BookingStatusConfirmed)),
			keyboard.Button("❌ Отклонить", callbacks.Status(event.BookingID, model.BookingStatusCanceled)),
		).Build()

	case service.EventBookingStatusChanged:
		recipientID = event.StudentID
		display := formatting.BookingStatus(event.NewStatus)
		text = fmt.Sprintf("%s Запись на курс <b>%s</b>: %s\n\n<code>%s</code>",
			display.Emoji, subject, display.Text, event.BookingID)
		if event.NewStatus == model.BookingStatusCompleted {
			text += fmt.Sprintf("\n\nОставьте отзыв: /review %s 5", event.BookingID)
		}

	case service.EventBookingDeleted:
		recipientID = event.TutorID
		text = fmt.Sprintf("🗑 Ученик отозвал заявку на курс <b>%s</b>\n\n<code>%s</code>", subject, event.BookingID)

	default:
		return nil
	}

	recipient, err := n.users.GetByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("get recipient %d: %w", recipientID, err)
	}

	params := &bot.SendMessageParams{
		ChatID:    recipient.TelegramID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := n.sender.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	n.logger.Debug("Booking notification sent",
		zap.String("type", string(event.Type)),
		zap.Int64("recipient_id", recipientID),
	)
	return nil
}
