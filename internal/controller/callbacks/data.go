// Package callbacks описывает формат данных inline кнопок.
package callbacks

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/google/uuid"
)

// Action тип действия кнопки
type Action string

const (
	ActionBook          Action = "book"
	ActionStatus        Action = "status"
	ActionCancelBooking Action = "cancel_booking"
)

// Data разобранные данные кнопки
type Data struct {
	Action Action
	ID     uuid.UUID
	Status model.BookingStatus // только для ActionStatus
}

func Book(postID uuid.UUID) string {
	return string(ActionBook) + ":" + postID.String()
}

func Status(bookingID uuid.UUID, status model.BookingStatus) string {
	return string(ActionStatus) + ":" + bookingID.String() + ":" + string(status)
}

func CancelBooking(bookingID uuid.UUID) string {
	return string(ActionCancelBooking) + ":" + bookingID.String()
}

// Parse разбирает "book:<uuid>", "status:<uuid>:<STATUS>", "cancel_booking:<uuid>"
func Parse(data string) (Data, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return Data{}, fmt.Errorf("invalid callback data %q", data)
	}

	action := Action(parts[0])
	wantParts := 2
	if action == ActionStatus {
		wantParts = 3
	}

	switch action {
	case ActionBook, ActionStatus, ActionCancelBooking:
	default:
		return Data{}, fmt.Errorf("unknown callback action %q", parts[0])
	}
	if len(parts) != wantParts {
		return Data{}, fmt.Errorf("invalid callback data %q", data)
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Data{}, fmt.Errorf("parse callback id: %w", err)
	}

	result := Data{Action: action, ID: id}
	if action == ActionStatus {
		status, ok := model.ParseBookingStatus(parts[2])
		if !ok {
			return Data{}, fmt.Errorf("unknown booking status %q", parts[2])
		}
		result.Status = status
	}
	return result, nil
}
