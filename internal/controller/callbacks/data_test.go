package callbacks

import (
	"testing"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	id := uuid.New()

	data, err := Parse(Book(id))
	require.NoError(t, err)
	assert.Equal(t, Data{Action: ActionBook, ID: id}, data)

	data, err = Parse(Status(id, model.BookingStatusConfirmed))
	require.NoError(t, err)
	assert.Equal(t, Data{Action: ActionStatus, ID: id, Status: model.BookingStatusConfirmed}, data)

	data, err = Parse(CancelBooking(id))
	require.NoError(t, err)
	assert.Equal(t, ActionCancelBooking, data.Action)
}

func TestCallbackDataFitsTelegramLimit(t *testing.T) {
	// Telegram ограничивает callback_data 64 байтами
	id := uuid.New()
	assert.LessOrEqual(t, len(Status(id, model.BookingStatusCompleted)), 64)
	assert.LessOrEqual(t, len(CancelBooking(id)), 64)
}

func TestParseRejectsMalformed(t *testing.T) {
	id := uuid.New().String()
	for _, data := range []string{
		"",
		"book",
		"book:not-a-uuid",
		"book:" + id + ":extra",
		"status:" + id,
		"status:" + id + ":LOST",
		"delete:" + id,
	} {
		_, err := Parse(data)
		assert.Error(t, err, data)
	}
}
