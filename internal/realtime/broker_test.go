package realtime

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisBroker(t *testing.T) *RedisBroker {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRedisBroker(client, log)
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertQuiet(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func brokers(t *testing.T) map[string]Broker {
	return map[string]Broker{
		"local": NewLocalBroker(),
		"redis": setupRedisBroker(t),
	}
}

func TestBroker_DeliversMonthAndBroadcastEvents(t *testing.T) {
	for name, b := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			march, stop, err := b.Subscribe(ctx, "2025-03")
			require.NoError(t, err)
			defer stop()

			require.NoError(t, b.Publish(ctx, Event{Kind: KindAssignment, Month: "2025-04", Date: "2025-04-01"}))
			require.NoError(t, b.Publish(ctx, Event{Kind: KindAssignment, Month: "2025-03", Date: "2025-03-04", UID: "u1"}))

			ev := receive(t, march)
			assert.Equal(t, KindAssignment, ev.Kind)
			assert.Equal(t, "2025-03-04", ev.Date)
			assert.False(t, ev.At.IsZero())

			require.NoError(t, b.Publish(ctx, Event{Kind: KindCatalog}))
			assert.Equal(t, KindCatalog, receive(t, march).Kind)
			assertQuiet(t, march)
		})
	}
}

func TestBroker_CancelClosesChannel(t *testing.T) {
	for name, b := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			ch, _, err := b.Subscribe(ctx, "2025-03")
			require.NoError(t, err)

			cancel()
			select {
			case _, ok := <-ch:
				assert.False(t, ok)
			case <-time.After(2 * time.Second):
				t.Fatal("subscription not torn down")
			}
		})
	}
}

func TestMonthOf(t *testing.T) {
	assert.Equal(t, "2025-03", MonthOf("2025-03-04"))
	assert.Equal(t, "", MonthOf("bad"))
}
