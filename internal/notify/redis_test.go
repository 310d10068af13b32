package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	channel string
	message []byte
	err     error
}

func (c *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	c.channel = channel
	c.message, _ = message.([]byte)

	cmd := goredis.NewIntCmd(ctx)
	if c.err != nil {
		cmd.SetErr(c.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func testEvent() service.BookingEvent {
	return service.BookingEvent{
		Type:      service.EventBookingStatusChanged,
		BookingID: uuid.New(),
		PostID:    uuid.New(),
		StudentID: 10,
		TutorID:   20,
		Subject:   "Math",
		OldStatus: model.BookingStatusPending,
		NewStatus: model.BookingStatusConfirmed,
		At:        time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisPublisherSendsJSON(t *testing.T) {
	client := &fakeClient{}
	pub := NewRedisPublisher(client, "tutor_market.bookings", zap.NewNop())
	event := testEvent()

	require.NoError(t, pub.Publish(context.Background(), event))
	assert.Equal(t, "tutor_market.bookings", client.channel)

	var decoded service.BookingEvent
	require.NoError(t, json.Unmarshal(client.message, &decoded))
	assert.Equal(t, event, decoded)
}

func TestRedisPublisherReturnsError(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	pub := NewRedisPublisher(client, "bookings", zap.NewNop())

	err := pub.Publish(context.Background(), testEvent())
	assert.ErrorContains(t, err, "connection refused")
}

type countingPublisher struct {
	calls int
	err   error
}

func (p *countingPublisher) Publish(context.Context, service.BookingEvent) error {
	p.calls++
	return p.err
}

func TestMultiDeliversToAll(t *testing.T) {
	failing := &countingPublisher{err: errors.New("down")}
	ok := &countingPublisher{}

	err := Multi{failing, nil, ok}.Publish(context.Background(), testEvent())

	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}
