package events

import (
	"testing"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	bus.Subscribe("topic", func(Event) { order = append(order, 1) })
	bus.Subscribe("topic", func(Event) { order = append(order, 2) })
	bus.Subscribe("topic", func(Event) { order = append(order, 3) })

	bus.Publish("topic", nil)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("delivery order = %v", order)
	}
}

func TestPublishIsSynchronous(t *testing.T) {
	bus := NewBus()

	var got Event
	bus.Subscribe("topic", func(ev Event) { got = ev })

	bus.Publish("topic", "payload")

	if got.Topic != "topic" {
		t.Fatalf("topic = %q", got.Topic)
	}
	if got.Payload != "payload" {
		t.Fatalf("payload = %v", got.Payload)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp not stamped")
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe("a", func(Event) { calls++ })

	bus.Publish("b", nil)
	if calls != 0 {
		t.Fatalf("handler on topic a received %d events from topic b", calls)
	}

	bus.Publish("a", nil)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	calls := 0
	sub := bus.Subscribe("topic", func(Event) { calls++ })
	keep := 0
	bus.Subscribe("topic", func(Event) { keep++ })

	bus.Publish("topic", nil)
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	bus.Publish("topic", nil)

	if calls != 1 {
		t.Fatalf("unsubscribed handler called %d times, want 1", calls)
	}
	if keep != 2 {
		t.Fatalf("remaining handler called %d times, want 2", keep)
	}
	if n := bus.SubscriberCount("topic"); n != 1 {
		t.Fatalf("subscriber count = %d, want 1", n)
	}
}

func TestNilHandlerYieldsInertSubscription(t *testing.T) {
	bus := NewBus()

	sub := bus.Subscribe("topic", nil)
	sub.Unsubscribe()

	if n := bus.SubscriberCount("topic"); n != 0 {
		t.Fatalf("subscriber count = %d, want 0", n)
	}
}

func TestSubscribeDuringDelivery(t *testing.T) {
	bus := NewBus()

	lateCalls := 0
	bus.Subscribe("topic", func(Event) {
		bus.Subscribe("topic", func(Event) { lateCalls++ })
	})

	// The handler registered mid-delivery must not see the in-flight event.
	bus.Publish("topic", nil)
	if lateCalls != 0 {
		t.Fatalf("late handler saw the event that registered it")
	}

	bus.Publish("topic", nil)
	if lateCalls != 1 {
		t.Fatalf("late calls = %d, want 1", lateCalls)
	}
}
