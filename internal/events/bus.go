package events

import (
	"sync"
	"time"
)

// Well-known topics published by the data layer.
const (
	TopicOperationStatus = "operation.status"
	TopicEquipmentChange = "equipment.change"
)

// Event is a single message delivered to subscribers.
type Event struct {
	Topic     string
	Timestamp time.Time
	Payload   any
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(Event)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	bus   *Bus
	topic string
	id    uint64
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.topic, s.id)
	s.bus = nil
}

// Logger defines the logging interface used by the Bus.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bus is a synchronous in-process publish/subscribe fan-out.
//
// Publish invokes every handler registered for the topic, in subscription
// order, on the caller's goroutine before returning. Delivery within a
// topic is therefore totally ordered with respect to the publisher.
//
// All methods are thread-safe.
type Bus struct {
	logger Logger

	mu     sync.RWMutex
	nextID uint64
	topics map[string][]subscriber
}

type subscriber struct {
	id      uint64
	handler Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		logger: noopLogger{},
		topics: make(map[string][]subscriber),
	}
}

// SetLogger sets the logger for the bus.
func (b *Bus) SetLogger(logger Logger) {
	b.logger = logger
}

// Subscribe registers a handler for a topic and returns its subscription
// handle. A nil handler is ignored and yields an inert subscription.
func (b *Bus) Subscribe(topic string, handler Handler) *Subscription {
	if handler == nil {
		return &Subscription{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.topics[topic] = append(b.topics[topic], subscriber{id: b.nextID, handler: handler})
	b.logger.Debug("subscriber added", "topic", topic, "subscribers", len(b.topics[topic]))
	return &Subscription{bus: b, topic: topic, id: b.nextID}
}

// Publish delivers an event to every handler registered for the topic.
// The event timestamp is stamped here when the caller leaves it zero.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	// Copy the slice header so handlers registered or removed mid-delivery
	// do not affect this fan-out.
	subs := b.topics[topic]
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	ev := Event{Topic: topic, Timestamp: time.Now(), Payload: payload}
	for _, s := range subs {
		s.handler(ev)
	}
}

// SubscriberCount returns the number of handlers registered for a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// remove drops a subscriber; the empty topic bucket is deleted.
func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	for i, s := range subs {
		if s.id == id {
			b.topics[topic] = append(append([]subscriber(nil), subs[:i]...), subs[i+1:]...)
			break
		}
	}
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}
