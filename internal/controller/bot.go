package controller

import (
	"context"

	"github.com/Freeeeeet/tutor_market/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, cmdHandlers *handlers.Handlers, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует обработчики. Команды разбираются внутри
// HandleTextMessage, поэтому на текст зарегистрирован один обработчик.
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Текстовые сообщения: команды и диалоги
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, handlers.Adapt(c.handlers.HandleTextMessage))

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlers.Adapt(c.handlers.HandleCallbackQuery))

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "posts", Description: "📚 Открытые курсы"},
		{Command: "mybookings", Description: "📅 Мои записи"},
		{Command: "week", Description: "🗓 Моя неделя"},
		{Command: "newpost", Description: "➕ Опубликовать курс (репетитор)"},
		{Command: "myposts", Description: "📝 Мои курсы (репетитор)"},
		{Command: "role", Description: "🎭 Сменить роль"},
		{Command: "cancel", Description: "✖️ Прервать диалог"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
