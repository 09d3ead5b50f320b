package notify

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultChannel is the pub/sub channel reminder events are published to.
const DefaultChannel = "reminders"

// RedisPublisher pushes reminder events to a Redis pub/sub channel so other
// consumers (dashboards, notification bridges) can react. Best effort only.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *log.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, logger *log.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

func (p *RedisPublisher) ReminderSent(ctx context.Context, ev Event) {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		p.logger.WithError(err).Error("marshal reminder event")
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Errorf("Unable to publish reminder for task %s to %s", ev.TaskID, p.channel)
	}
}
