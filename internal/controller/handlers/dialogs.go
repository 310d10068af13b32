package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_market/internal/controller/state"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/schedule"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Ключи черновика поста
const (
	keyTitle       = "title"
	keyDescription = "description"
	keySubject     = "subject"
	keyLocation    = "location"
	keyGrade       = "grade"
	keySchedules   = "schedules"
	keyStartTime   = "start_time"
	keyEndTime     = "end_time"
	keyCapacity    = "capacity"
)

// dialogStep шаг диалога: куда сохранить ответ, как его разобрать и что спросить дальше
type dialogStep struct {
	key    string
	parse  func(text string) (any, error)
	next   state.UserState
	prompt string // вопрос для следующего шага
}

var newPostSteps = map[state.UserState]dialogStep{
	state.StateNewPostTitle: {
		key:    keyTitle,
		parse:  parseText,
		next:   state.StateNewPostDescription,
		prompt: "📝 Опишите курс (до 1000 символов):",
	},
	state.StateNewPostDescription: {
		key:    keyDescription,
		parse:  parseText,
		next:   state.StateNewPostSubject,
		prompt: "📚 Предмет (например, Математика):",
	},
	state.StateNewPostSubject: {
		key:    keySubject,
		parse:  parseText,
		next:   state.StateNewPostLocation,
		prompt: "📍 Где проходят занятия (адрес или Online):",
	},
	state.StateNewPostLocation: {
		key:    keyLocation,
		parse:  parseText,
		next:   state.StateNewPostGrade,
		prompt: "🎓 Для какого класса или уровня:",
	},
	state.StateNewPostGrade: {
		key:   keyGrade,
		parse: parseText,
		next:  state.StateNewPostSchedules,
		prompt: "🗓 Еженедельное расписание через запятую.\n\n" +
			"Например: <code>Пн 10:00-12:00, Ср 14:00-15:30</code>",
	},
	state.StateNewPostSchedules: {
		key:   keySchedules,
		parse: parseScheduleStep,
		next:  state.StateNewPostPeriod,
		prompt: "📅 Период курса.\n\n" +
			"Например: <code>01.04.2026-30.06.2026</code>",
	},
	state.StateNewPostPeriod: {
		parse:  parsePeriod,
		next:   state.StateNewPostCapacity,
		prompt: "👥 Сколько учеников можно принять:",
	},
	state.StateNewPostCapacity: {
		key:   keyCapacity,
		parse: parseCapacity,
		next:  state.StateNone,
	},
}

func parseText(text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("ответ не может быть пустым")
	}
	return text, nil
}

func parseScheduleStep(text string) (any, error) {
	schedules, err := formatting.ParseSchedules(text)
	if err != nil {
		return nil, err
	}
	if err := schedule.ValidateShape(schedules); err != nil {
		if e, ok := apperr.As(err); ok {
			return nil, errors.New(e.Message)
		}
		return nil, err
	}
	return schedules, nil
}

// period ответ шага периода, раскладывается на два ключа черновика
type period struct {
	start, end time.Time
}

func parsePeriod(text string) (any, error) {
	start, end, err := formatting.ParsePeriod(text, time.Local)
	if err != nil {
		return nil, err
	}
	return period{start: start, end: end}, nil
}

func parseCapacity(text string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return nil, fmt.Errorf("нужно целое число больше нуля")
	}
	return n, nil
}

// HandleNewPostStart начинает диалог создания поста
func (h *Handlers) HandleNewPostStart(ctx context.Context, b Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	if err := service.Require(model.CallerOf(user), service.CapCreatePost); err != nil {
		h.sendError(ctx, b, chatID, "start new post", err)
		return
	}

	h.stateManager.ClearState(user.TelegramID)
	h.stateManager.SetState(user.TelegramID, state.StateNewPostTitle)

	h.sendMessage(ctx, b, chatID, "➕ <b>Новый курс</b>\n\n"+
		"Название курса (от 5 до 100 символов):\n\n"+
		"Прервать: /cancel")
}

// handleDialog обрабатывает очередной ответ в диалоге
func (h *Handlers) handleDialog(ctx context.Context, b Sender, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	current := h.stateManager.GetState(telegramID)

	step, ok := newPostSteps[current]
	if !ok {
		h.stateManager.ClearState(telegramID)
		return
	}

	value, err := step.parse(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "⚠️ "+err.Error()+"\n\nПопробуйте ещё раз или /cancel")
		return
	}

	if p, isPeriod := value.(period); isPeriod {
		h.stateManager.SetData(telegramID, keyStartTime, p.start)
		h.stateManager.SetData(telegramID, keyEndTime, p.end)
	} else {
		h.stateManager.SetData(telegramID, step.key, value)
	}

	if step.next != state.StateNone {
		h.stateManager.SetState(telegramID, step.next)
		h.sendMessage(ctx, b, chatID, step.prompt)
		return
	}

	h.finishNewPost(ctx, b, chatID, telegramID)
}

// finishNewPost создаёт пост из черновика
func (h *Handlers) finishNewPost(ctx context.Context, b Sender, chatID, telegramID int64) {
	input, err := h.newPostInput(telegramID)
	h.stateManager.ClearState(telegramID)
	if err != nil {
		h.logger.Warn("Incomplete post draft", zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ Черновик повреждён, начните заново: /newpost")
		return
	}

	user, ok := h.lookupUser(ctx, b, chatID, telegramID)
	if !ok {
		return
	}

	post, err := h.postService.Create(ctx, model.CallerOf(user), input)
	if err != nil {
		h.sendError(ctx, b, chatID, "create post", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Курс опубликован!\n\n"+formatting.Post(post))
}

func (h *Handlers) newPostInput(telegramID int64) (service.CreatePostInput, error) {
	var (
		in      service.CreatePostInput
		missing []string
	)

	str := func(key string) string {
		value, _ := h.stateManager.GetData(telegramID, key)
		s, ok := value.(string)
		if !ok {
			missing = append(missing, key)
		}
		return s
	}
	tm := func(key string) time.Time {
		value, _ := h.stateManager.GetData(telegramID, key)
		t, ok := value.(time.Time)
		if !ok {
			missing = append(missing, key)
		}
		return t
	}

	in.Title = str(keyTitle)
	in.Description = str(keyDescription)
	in.Subject = str(keySubject)
	in.Location = str(keyLocation)
	in.Grade = str(keyGrade)
	in.StartTime = tm(keyStartTime)
	in.EndTime = tm(keyEndTime)

	if value, _ := h.stateManager.GetData(telegramID, keySchedules); value != nil {
		in.Schedules, _ = value.([]model.Schedule)
	}
	if in.Schedules == nil {
		missing = append(missing, keySchedules)
	}

	value, _ := h.stateManager.GetData(telegramID, keyCapacity)
	capacity, ok := value.(int)
	if !ok {
		missing = append(missing, keyCapacity)
	}
	in.MaxStudent = capacity

	if len(missing) > 0 {
		return in, fmt.Errorf("post draft is missing %s", strings.Join(missing, ", "))
	}
	return in, nil
}
