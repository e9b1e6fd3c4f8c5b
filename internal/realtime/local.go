package realtime

import (
	"context"
	"sync"
	"time"
)

// LocalBroker delivers events inside one process. It is used when no Redis
// address is configured.
type LocalBroker struct {
	mu   sync.Mutex
	subs map[*localSub]struct{}
}

type localSub struct {
	month string
	ch    chan Event
	once  sync.Once
}

var _ Broker = (*LocalBroker)(nil)

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: map[*localSub]struct{}{}}
}

func (b *LocalBroker) Publish(_ context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		if ev.Month == "" || ev.Month == s.month {
			offer(s.ch, ev)
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, month string) (<-chan Event, func(), error) {
	s := &localSub{month: month, ch: make(chan Event, subscriberBuffer)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	stop := make(chan struct{})
	cancel := func() {
		s.once.Do(func() {
			b.mu.Lock()
			delete(b.subs, s)
			close(s.ch)
			b.mu.Unlock()
			close(stop)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()
	return s.ch, cancel, nil
}
