package services

import (
	"sync"
)

// ChangeEvent describes a data change within one project. Table names the
// changed collection (entries, roles, project) and Action the kind of
// change (insert, update, delete).
type ChangeEvent struct {
	ProjectID uint   `json:"project_id"`
	Table     string `json:"table"`
	Action    string `json:"action"`
	EntryID   uint   `json:"entry_id,omitempty"`
}

// Change event tables.
const (
	TableEntries = "entries"
	TableRoles   = "roles"
	TableProject = "project"
)

// Change event actions.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

type eventClient struct {
	projectID uint
	ch        chan ChangeEvent
}

// EventHub fans project change events out to live subscribers. Each
// subscriber only receives events for the project it registered for.
type EventHub struct {
	clients map[string]eventClient
	mu      sync.RWMutex
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]eventClient),
	}
}

// Subscribe registers a client for one project's events and returns its
// receive channel. The channel is buffered so a slow consumer never blocks
// publishers.
func (h *EventHub) Subscribe(clientID string, projectID uint) <-chan ChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ChangeEvent, 100)
	h.clients[clientID] = eventClient{projectID: projectID, ch: ch}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (h *EventHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.ch)
		delete(h.clients, clientID)
	}
}

// Publish delivers event to every subscriber of its project. Events are
// dropped for clients whose buffer is full.
func (h *EventHub) Publish(event ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.projectID != event.ProjectID {
			continue
		}
		select {
		case c.ch <- event:
		default:
			// Client is slow, skip this event
		}
	}
}

// ClientCount returns the number of connected clients across all projects.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
