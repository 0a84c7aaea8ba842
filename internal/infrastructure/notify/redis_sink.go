package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/domain/port"
)

// DefaultRedisChannel канал pub/sub для оценок
const DefaultRedisChannel = "posture:updates"

// Publisher часть redis-клиента, которая нужна получателю
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink публикует каждую оценку в канал Redis. Историю не хранит.
type RedisSink struct {
	client  Publisher
	channel string
	timeout time.Duration
	log     *logrus.Logger
}

// RedisMessage сообщение в канале
type RedisMessage struct {
	Type    string          `json:"type"` // posture | error
	Posture *entity.Posture `json:"posture,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NewRedisClient подключается к Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, addr, password string, log *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithFields(logrus.Fields{
			"addr":  addr,
			"error": err.Error(),
		}).Warn("[notify.NewRedisClient] redis is not reachable yet")
	} else {
		log.WithFields(logrus.Fields{"addr": addr}).Info("[notify.NewRedisClient] connected to redis")
	}

	return client
}

func NewRedisSink(client Publisher, channel string, log *logrus.Logger) *RedisSink {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisSink{
		client:  client,
		channel: channel,
		timeout: time.Second,
		log:     log,
	}
}

func (s *RedisSink) ShowPosture(ctx context.Context, posture entity.Posture) {
	s.publish(ctx, RedisMessage{Type: "posture", Posture: &posture})
}

func (s *RedisSink) ShowError(ctx context.Context, err error) {
	s.publish(ctx, RedisMessage{Type: "error", Error: err.Error()})
}

func (s *RedisSink) publish(ctx context.Context, msg RedisMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.WithFields(logrus.Fields{"error": err.Error()}).Error("[RedisSink.publish] failed to encode message")
		return
	}

	// Сессия могла уже закончиться, публикуем независимо от её контекста.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.log.WithFields(logrus.Fields{
			"channel": s.channel,
			"error":   err.Error(),
		}).Warn("[RedisSink.publish] failed to publish posture")
	}
}

var _ port.PresentationSink = (*RedisSink)(nil)
