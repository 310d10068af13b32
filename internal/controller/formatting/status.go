package formatting

import "github.com/Freeeeeet/tutor_market/internal/model"

// StatusDisplay emoji и текст для отображения
type StatusDisplay struct {
	Emoji string
	Text  string
}

// BookingStatus возвращает emoji и текст для статуса бронирования
func BookingStatus(status model.BookingStatus) StatusDisplay {
	displays := map[model.BookingStatus]StatusDisplay{
		model.BookingStatusPending:   {"⏳", "Ожидает подтверждения"},
		model.BookingStatusConfirmed: {"✅", "Подтверждена"},
		model.BookingStatusCompleted: {"✔️", "Завершена"},
		model.BookingStatusCanceled:  {"❌", "Отменена"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// Role название роли по-русски
func Role(role model.Role) string {
	switch role {
	case model.RoleStudent:
		return "ученик"
	case model.RoleTutor:
		return "репетитор"
	case model.RoleAdmin:
		return "администратор"
	default:
		return string(role)
	}
}
