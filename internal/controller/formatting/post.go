package formatting

import (
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/tutor_market/internal/model"
)

// Post полная карточка поста
func Post(post *model.Post) string {
	status := "🟢 Открыт для записи"
	switch {
	case post.IsFull():
		status = "🔴 Мест нет"
	case !post.Visibility:
		status = "⏸ Скрыт"
	}

	return fmt.Sprintf(
		"<b>%s</b>\n\n"+
			"📚 Предмет: %s\n"+
			"🎓 Класс: %s\n"+
			"📍 Место: %s\n"+
			"🗓 Расписание: %s\n"+
			"📅 Период: %s - %s\n"+
			"👥 Места: %d/%d\n"+
			"📊 %s\n\n"+
			"%s\n\n"+
			"<code>%s</code>",
		html.EscapeString(post.Title),
		html.EscapeString(post.Subject),
		html.EscapeString(post.Grade),
		html.EscapeString(post.Location),
		Schedules(post.Schedules),
		Date(post.StartTime), Date(post.EndTime),
		post.ApprovedStudent, post.MaxStudent,
		status,
		html.EscapeString(post.Description),
		post.ID,
	)
}

// PostShort строка списка постов
func PostShort(post *model.Post, index int) string {
	return fmt.Sprintf(
		"%d. <b>%s</b> (%s, %s)\n"+
			"   🗓 %s | 👥 %d/%d\n"+
			"   <code>%s</code>",
		index,
		html.EscapeString(post.Title),
		html.EscapeString(post.Subject),
		html.EscapeString(post.Grade),
		Schedules(post.Schedules),
		post.ApprovedStudent, post.MaxStudent,
		post.ID,
	)
}

// Booking карточка записи
func Booking(booking *model.Booking) string {
	display := BookingStatus(booking.Status)

	return fmt.Sprintf(
		"%s <b>%s</b>\n"+
			"🗓 %s\n"+
			"📊 %s\n"+
			"<code>%s</code>",
		display.Emoji,
		html.EscapeString(booking.Subject),
		Schedules(booking.Schedules),
		display.Text,
		booking.ID,
	)
}

// Bookings список записей или сообщение о пустом списке
func Bookings(bookings []*model.Booking) string {
	if len(bookings) == 0 {
		return "📭 Записей пока нет."
	}

	parts := make([]string, 0, len(bookings))
	for _, b := range bookings {
		parts = append(parts, Booking(b))
	}
	return "📅 <b>Записи</b>\n\n" + strings.Join(parts, "\n\n")
}

// Review строка отзыва
func Review(review *model.Review) string {
	text := fmt.Sprintf("⭐️ %.1f", review.Rating)
	if review.Comment != "" {
		text += " - " + html.EscapeString(review.Comment)
	}
	return text
}
