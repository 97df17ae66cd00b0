package api

import (
	"log/slog"
	"sync"

	"github.com/lysyi3m/news-crawl/app/crawl"
)

const subscriberBuffer = 64

// Broadcaster fans crawl progress out to every connected event stream.
// Notify never blocks: a subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan crawl.Progress]struct{}
}

var _ crawl.Notifier = (*Broadcaster)(nil)

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[chan crawl.Progress]struct{})}
}

// Subscribe registers a new listener. The returned function unregisters it
// and must be called exactly once.
func (b *Broadcaster) Subscribe() (<-chan crawl.Progress, func()) {
	ch := make(chan crawl.Progress, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subscribers, ch)
		b.mu.Unlock()
	}
}

func (b *Broadcaster) Notify(progress crawl.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		select {
		case ch <- progress:
		default:
			slog.Debug("Dropping progress event for slow subscriber", "task_id", progress.TaskID)
		}
	}
}

func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
