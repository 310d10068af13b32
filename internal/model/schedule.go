package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Clock время суток в минутах от полуночи
type Clock int

const minutesPerDay = 24 * 60

// NewClock собирает Clock из часов и минут
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock разбирает строку вида "15:04"
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Valid проверяет что время лежит в пределах суток
func (c Clock) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("clock must be a string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Schedule еженедельный слот занятия.
// Не имеет собственной идентичности: принадлежит посту или бронированию.
type Schedule struct {
	Weekday   time.Weekday `json:"weekday"`    // 0 = Sunday, 6 = Saturday
	StartHour Clock        `json:"start_hour"` // начало занятия
	EndHour   Clock        `json:"end_hour"`   // конец занятия, строго позже начала
}

func (s Schedule) String() string {
	return fmt.Sprintf("%s %s-%s", s.Weekday, s.StartHour, s.EndHour)
}

// CopySchedules возвращает независимую копию списка расписаний
func CopySchedules(src []Schedule) []Schedule {
	if src == nil {
		return nil
	}
	dst := make([]Schedule, len(src))
	copy(dst, src)
	return dst
}
