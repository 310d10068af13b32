package handlers

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/tutor_market/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_market/internal/controller/state"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Adapt превращает HandlerFunc в обработчик библиотеки бота
func Adapt(fn HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		fn(ctx, b, update)
	}
}

// HandleTextMessage единая точка входа для текста: команды ищутся в таблице,
// остальной текст уходит в активный диалог.
func (h *Handlers) HandleTextMessage(ctx context.Context, b Sender, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	command, _ := parseCommand(update.Message.Text)
	if command != "" {
		handler, ok := h.commands[command]
		if !ok {
			h.sendMessage(ctx, b, update.Message.Chat.ID, "❓ Неизвестная команда. Список команд: /help")
			return
		}
		handler(ctx, b, update)
		return
	}

	if h.stateManager.GetState(update.Message.From.ID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Используйте /help для просмотра доступных команд.")
		return
	}

	h.handleDialog(ctx, b, update)
}

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b Sender, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	user, err := h.userService.Register(ctx, from.ID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это биржа репетиторов: репетиторы публикуют курсы с еженедельным расписанием, "+
			"ученики записываются на них.\n\n"+
			"Ваша роль: <b>%s</b>\n"+
			"Сменить роль: /role student или /role tutor\n\n"+
			"Список команд: /help",
		html.EscapeString(user.DisplayName()),
		formatting.Role(user.Role),
	)

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b Sender, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 <b>Справка по командам</b>\n\n" +
		"<b>Общие:</b>\n" +
		"/start - Регистрация\n" +
		"/role - Текущая роль, /role student|tutor - сменить\n" +
		"/mybookings - Мои записи\n" +
		"/week - Моя неделя картинкой\n" +
		"/cancel - Прервать текущий диалог\n\n" +
		"<b>Для учеников:</b>\n" +
		"/posts - Открытые курсы\n" +
		"/post &lt;id&gt; - Карточка курса\n" +
		"/book &lt;id&gt; - Записаться на курс\n" +
		"/cancelbooking &lt;id&gt; - Отозвать заявку\n" +
		"/review &lt;id записи&gt; &lt;1-5&gt; [комментарий] - Оставить отзыв\n" +
		"/reviews &lt;id репетитора&gt; - Отзывы о репетиторе\n\n" +
		"<b>Для репетиторов:</b>\n" +
		"/newpost - Опубликовать курс\n" +
		"/myposts - Мои курсы\n" +
		"/status &lt;id записи&gt; &lt;CONFIRMED|CANCELED|COMPLETED&gt; - Статус записи\n" +
		"/capacity &lt;id курса&gt; &lt;мест&gt; - Изменить число мест\n" +
		"/hidepost, /showpost &lt;id&gt; - Закрыть или открыть запись\n" +
		"/deletepost &lt;id&gt; - Удалить курс\n\n" +
		"<b>Для администратора:</b>\n" +
		"/users, /userbookings &lt;id&gt;, /setrole &lt;id&gt; &lt;роль&gt;, /resync &lt;id курса&gt;, /reconcile"

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b Sender, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.")
}

// HandleRole показывает или меняет собственную роль
func (h *Handlers) HandleRole(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update)
	if len(args) == 0 {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf(
			"Ваша роль: <b>%s</b>\n\nСменить: /role student или /role tutor", formatting.Role(user.Role)))
		return
	}

	role, valid := model.ParseRole(args[0])
	if !valid {
		h.sendMessage(ctx, b, chatID, "❌ Роль должна быть student или tutor.")
		return
	}

	updated, err := h.userService.SetRole(ctx, model.CallerOf(user), user.ID, role)
	if err != nil {
		h.sendError(ctx, b, chatID, "set role", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Теперь вы %s.", formatting.Role(updated.Role)))
}
