package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/minhopark/store-portal/internal"
)

func NewRedisClient(cfg internal.EventsConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// RedisNotifier publishes entity change notifications on a redis channel so
// other portal instances and background workers can invalidate their view.
// Publish failures are logged and swallowed: the write that triggered the
// notification already committed.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisNotifier(client *redis.Client, channel string, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

func (n *RedisNotifier) EntityChanged(ctx context.Context, kind string, id int64) {
	event := NewEntityChangedEvent(kind, id)
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to marshal entity changed event", "error", err)
		return
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Error("failed to publish entity changed event",
			"error", err,
			"kind", kind,
			"entity_id", id)
		return
	}

	n.logger.Debug("entity changed event published",
		"kind", kind,
		"entity_id", id,
		"event_id", event.ID)
}

// Relay subscribes to the redis channel and republishes each notification on
// the in-process bus. It blocks until ctx is cancelled.
func Relay(ctx context.Context, client *redis.Client, channel string, bus *EventBus, logger *slog.Logger) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	logger.Info("event relay started", "channel", channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			logger.Info("event relay stopping")
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event EntityChangedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn("dropping malformed entity changed event", "error", err)
				continue
			}
			if err := bus.Publish(ctx, event); err != nil {
				logger.Error("failed to republish entity changed event", "error", err)
			}
		}
	}
}
