package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	eventChannelPrefix = "plan:events:"    // Pub/Sub channel per month: plan:events:{YYYY-MM}
	broadcastChannel   = "plan:events:all" // events without a month
)

// RedisBroker shares change events between every API instance through Redis
// Pub/Sub.
type RedisBroker struct {
	client *redis.Client
	log    *logrus.Logger
}

var _ Broker = (*RedisBroker)(nil)

func NewRedisBroker(client *redis.Client, log *logrus.Logger) *RedisBroker {
	return &RedisBroker{client: client, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, channelFor(ev.Month), data).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Kind, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, month string) (<-chan Event, func(), error) {
	ps := b.client.Subscribe(ctx, channelFor(month), broadcastChannel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", month, err)
	}

	out := make(chan Event, subscriberBuffer)
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() { once.Do(func() { close(stop) }) }

	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed plan event")
					continue
				}
				offer(out, ev)
			}
		}
	}()
	return out, cancel, nil
}

func channelFor(month string) string {
	if month == "" {
		return broadcastChannel
	}
	return eventChannelPrefix + month
}
