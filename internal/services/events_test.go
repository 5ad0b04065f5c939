package services

import (
	"testing"
	"time"
)

func TestEventHubSubscribeAndPublish(t *testing.T) {
	hub := NewEventHub()

	ch := hub.Subscribe("client-1", 1)
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.ClientCount())
	}

	hub.Publish(ChangeEvent{ProjectID: 1, Table: TableEntries, Action: ActionInsert, EntryID: 7})

	select {
	case ev := <-ch:
		if ev.Table != TableEntries || ev.Action != ActionInsert || ev.EntryID != 7 {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("expected to receive published event")
	}
}

func TestEventHubScopesByProject(t *testing.T) {
	hub := NewEventHub()

	chA := hub.Subscribe("client-a", 1)
	chB := hub.Subscribe("client-b", 2)

	hub.Publish(ChangeEvent{ProjectID: 2, Table: TableEntries, Action: ActionUpdate})

	select {
	case <-chB:
	case <-time.After(time.Second):
		t.Fatal("subscriber of project 2 should receive the event")
	}

	select {
	case ev := <-chA:
		t.Errorf("subscriber of project 1 should not receive project 2 events, got %+v", ev)
	default:
	}
}

func TestEventHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewEventHub()

	ch := hub.Subscribe("client-1", 1)
	hub.Unsubscribe("client-1")

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel should be closed after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("channel should be closed after unsubscribe")
	}

	// Unsubscribing twice must not panic.
	hub.Unsubscribe("client-1")
}

func TestEventHubSlowClientDoesNotBlockPublish(t *testing.T) {
	hub := NewEventHub()

	hub.Subscribe("slow", 1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(ChangeEvent{ProjectID: 1, Table: TableEntries, Action: ActionUpdate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow client")
	}
}
