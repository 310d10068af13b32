// Package notify доставляет события бронирований подписчикам вне транзакции.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/service"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// publishClient часть redis клиента, которая нужна издателю
type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// RedisPublisher публикует события в канал Redis pub/sub в виде JSON
type RedisPublisher struct {
	client  publishClient
	channel string
	logger  *zap.Logger
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr string, logger *zap.Logger) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr))
	return rdb, nil
}

func NewRedisPublisher(client publishClient, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event service.BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish booking event: %w", err)
	}

	p.logger.Debug("Booking event published",
		zap.String("channel", p.channel),
		zap.String("type", string(event.Type)),
		zap.String("booking_id", event.BookingID.String()),
		zap.Int64("receivers", receivers),
	)
	return nil
}

// Multi рассылает событие всем издателям. Ошибка одного не прерывает рассылку,
// наружу возвращается первая.
type Multi []service.EventPublisher

func (m Multi) Publish(ctx context.Context, event service.BookingEvent) error {
	var firstErr error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
