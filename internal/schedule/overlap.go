// Package schedule проверяет пересечения еженедельных слотов.
package schedule

import (
	"time"

	"github.com/Freeeeeet/tutor_market/internal/apperr"
	"github.com/Freeeeeet/tutor_market/internal/model"
)

// Overlaps сообщает пересекаются ли два слота.
// Слоты в разные дни не пересекаются. Касание границ (конец одного равен началу
// другого) пересечением не считается, так что занятия можно ставить встык.
func Overlaps(a, b model.Schedule) bool {
	if a.Weekday != b.Weekday {
		return false
	}
	return a.StartHour < b.EndHour && b.StartHour < a.EndHour
}

// ValidateShape проверяет сам список слотов: он не пуст, дни недели и время корректны
func ValidateShape(schedules []model.Schedule) error {
	if len(schedules) == 0 {
		return apperr.Validation("at least one schedule is required")
	}
	for i, s := range schedules {
		if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
			return apperr.Validation("schedule %d: invalid weekday %d", i+1, int(s.Weekday))
		}
		if !s.StartHour.Valid() || !s.EndHour.Valid() {
			return apperr.Validation("schedule %d: time of day out of range", i+1)
		}
		if s.EndHour <= s.StartHour {
			return apperr.Validation("schedule %d: end hour must be after start hour", i+1)
		}
	}
	return nil
}
