package formatting

import (
	"github.com/Freeeeeet/tutor_market/internal/apperr"
)

var errorTexts = map[string]string{
	"NOT_STUDENT":             "Это действие доступно только ученикам. Сменить роль: /role student",
	"NOT_TUTOR":               "Это действие доступно только репетиторам. Сменить роль: /role tutor",
	"NOT_ADMIN":               "Нужны права администратора.",
	"INVALID_ROLE":            "Действие недоступно для вашей роли.",
	"POST_NOT_FOUND":          "Пост не найден.",
	"BOOKING_NOT_FOUND":       "Запись не найдена.",
	"USER_NOT_FOUND":          "Пользователь не найден.",
	"REVIEW_NOT_FOUND":        "Отзыва на эту запись пока нет.",
	"NOT_POST_OWNER":          "Можно менять только свои посты.",
	"NOT_BOOKING_OWNER":       "Это не ваша запись.",
	"NOT_BOOKING_TUTOR":       "Статус записи меняет только репетитор этого курса.",
	"NOT_BOOKING_PARTICIPANT": "Вы не участник этой записи.",
	"POST_NOT_AVAILABLE":      "Запись на этот курс закрыта.",
	"POST_FULL":               "Все места на курсе заняты.",
	"POST_ENDED":              "Курс уже закончился.",
	"NOT_PENDING_STATUS":      "Удалить можно только заявку, которая ещё ждёт подтверждения.",
	"BOOKING_NOT_COMPLETED":   "Отзыв можно оставить только после завершения занятий.",
	"REVIEW_EXISTS":           "Вы уже оставили отзыв на эту запись.",
}

// ErrorText сообщение для пользователя. Детали конфликтов расписания и
// ошибок валидации добавляются к тексту, внутренние ошибки скрываются.
func ErrorText(err error) string {
	e, ok := apperr.As(err)
	if !ok {
		return "❌ Произошла ошибка. Попробуйте позже."
	}

	switch e.Kind {
	case apperr.KindConflict:
		if e.Code != apperr.ErrReviewExists.Code {
			return "⚠️ Пересечение расписания: " + e.Message
		}
	case apperr.KindValidation:
		return "⚠️ Проверьте данные: " + e.Message
	}

	if text, ok := errorTexts[e.Code]; ok {
		return "❌ " + text
	}
	return "❌ " + e.Message
}
