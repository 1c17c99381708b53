package events

import "sync"

// Topic names the table family a committed write touched
type Topic string

const (
	TopicHabits        Topic = "habits"
	TopicCompletions   Topic = "completions"
	TopicNotifications Topic = "notifications"
	TopicProfile       Topic = "profile"
	TopicPending       Topic = "pending"
)

// Event is published by the storage layer after a write commits.
// Only IDs are carried; subscribers re-read what they need.
type Event struct {
	Topic   Topic
	HabitID string // empty when the write is not habit-scoped
}

// Bus is an in-process fan-out pub-sub. Each subscriber owns a buffered channel.
type Bus struct {
	mu     sync.RWMutex
	buffer int
	next   int
	subs   map[int]chan Event
	closed bool
}

// NewBus creates a bus whose subscribers get channels of the given buffer size.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{buffer: buffer, subs: make(map[int]chan Event)}
}

// Publish offers evt to every subscriber without blocking.
// A subscriber with a full buffer misses the event; it still has
// earlier events queued that will make it re-read current state.
// Returns the number of subscribers that received it.
func (b *Bus) Publish(evt Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}
	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- evt:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribe registers a new consumer. The returned cancel func unregisters it
// and closes the channel; calling it more than once is safe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Close unregisters and closes every subscriber
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
