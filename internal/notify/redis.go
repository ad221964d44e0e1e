package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const streamPrefix = "ensemble:ecosystem:"

// RedisNotifier publishes interaction events onto a per-ecosystem
// Redis Stream so UI and analytics consumers can tail them.
type RedisNotifier struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier connects to Redis and verifies it with a ping.
func NewRedisNotifier(redisURL string, logger *zap.Logger) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisNotifier{rdb: rdb, logger: logger}, nil
}

// Notify appends the event to the ecosystem's stream.
func (n *RedisNotifier) Notify(ctx context.Context, ecosystemID string, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}

	stream := streamPrefix + ecosystemID
	_, err = n.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", stream, err)
	}

	n.logger.Debug("published event",
		zap.String("stream", stream),
		zap.String("event", ev.ID),
		zap.String("kind", ev.Kind))
	return nil
}

// Subscribe tails an ecosystem's stream. Returns a channel that emits
// events; cancel the context to stop.
func (n *RedisNotifier) Subscribe(ctx context.Context, ecosystemID string) <-chan *Event {
	ch := make(chan *Event, 16)
	stream := streamPrefix + ecosystemID

	go func() {
		defer close(ch)
		lastID := "$"

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			results, err := n.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, lastID},
				Count:   10,
				Block:   time.Second * 2,
			}).Result()
			if err != nil {
				if err == context.Canceled || err == context.DeadlineExceeded {
					return
				}
				continue
			}

			for _, r := range results {
				for _, msg := range r.Messages {
					lastID = msg.ID
					data, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}
					var ev Event
					if json.Unmarshal([]byte(data), &ev) == nil {
						ch <- &ev
					}
				}
			}
		}
	}()

	return ch
}

// Close shuts down the Redis connection.
func (n *RedisNotifier) Close() error {
	return n.rdb.Close()
}
