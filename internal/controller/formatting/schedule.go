package formatting

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
)

var weekdayShort = map[time.Weekday]string{
	time.Monday:    "Пн",
	time.Tuesday:   "Вт",
	time.Wednesday: "Ср",
	time.Thursday:  "Чт",
	time.Friday:    "Пт",
	time.Saturday:  "Сб",
	time.Sunday:    "Вс",
}

// WeekdayShort короткое название дня недели
func WeekdayShort(day time.Weekday) string {
	if name, ok := weekdayShort[day]; ok {
		return name
	}
	return "?"
}

// ParseWeekday понимает "Пн", "пн", "Mon", "monday"
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for day, name := range weekdayShort {
		if s == strings.ToLower(name) {
			return day, true
		}
		english := strings.ToLower(day.String())
		if s == english || s == english[:3] {
			return day, true
		}
	}
	return 0, false
}

// Schedule "Пн 10:00-12:00"
func Schedule(s model.Schedule) string {
	return fmt.Sprintf("%s %s-%s", WeekdayShort(s.Weekday), s.StartHour, s.EndHour)
}

// Schedules слоты через запятую
func Schedules(schedules []model.Schedule) string {
	parts := make([]string, 0, len(schedules))
	for _, s := range schedules {
		parts = append(parts, Schedule(s))
	}
	return strings.Join(parts, ", ")
}

// ParseSchedules разбирает список вида "Пн 10:00-12:00, Ср 14:00-15:30".
// Форма слотов (порядок времени, пересечения) здесь не проверяется.
func ParseSchedules(text string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' || r == '\n' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fields := strings.Fields(part)
		if len(fields) != 2 {
			return nil, fmt.Errorf("слот %q: ожидается \"день ЧЧ:ММ-ЧЧ:ММ\"", part)
		}

		day, ok := ParseWeekday(fields[0])
		if !ok {
			return nil, fmt.Errorf("слот %q: неизвестный день недели %q", part, fields[0])
		}

		bounds := strings.Split(fields[1], "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("слот %q: ожидается время ЧЧ:ММ-ЧЧ:ММ", part)
		}
		start, err := model.ParseClock(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("слот %q: неверное время начала", part)
		}
		end, err := model.ParseClock(bounds[1])
		if err != nil {
			return nil, fmt.Errorf("слот %q: неверное время окончания", part)
		}

		schedules = append(schedules, model.Schedule{Weekday: day, StartHour: start, EndHour: end})
	}

	if len(schedules) == 0 {
		return nil, fmt.Errorf("не указано ни одного слота")
	}
	return schedules, nil
}

// Date формат даты для сообщений
func Date(t time.Time) string {
	return t.Format("02.01.2006")
}

// ParsePeriod разбирает "01.04.2026-30.06.2026". Конец включает весь последний день.
func ParsePeriod(text string, loc *time.Location) (time.Time, time.Time, error) {
	bounds := strings.Split(strings.TrimSpace(text), "-")
	if len(bounds) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("ожидается период ДД.ММ.ГГГГ-ДД.ММ.ГГГГ")
	}
	start, err := time.ParseInLocation("02.01.2006", strings.TrimSpace(bounds[0]), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("неверная дата начала %q", bounds[0])
	}
	end, err := time.ParseInLocation("02.01.2006", strings.TrimSpace(bounds[1]), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("неверная дата окончания %q", bounds[1])
	}
	return start, end.Add(24*time.Hour - time.Second), nil
}
