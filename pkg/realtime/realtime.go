// Package realtime is an in-process publish/subscribe hub that fans out
// inspiration panel updates to every connected listener (websocket sessions).
//
// Delivery is best effort: a listener whose buffer is full misses that event
// and picks up the next one. Every event carries a full snapshot, so a
// dropped event never leaves a listener with partial state.
package realtime

import (
	"sync"

	"github.com/rubiojr/sparks/pkg/inspire"
)

// Event types produced by the hub.
const (
	EventPanel = "panel"
)

// Event is the envelope pushed to listeners.
type Event struct {
	Type  string           `json:"type"`
	Panel inspire.Snapshot `json:"panel"`
}

// Hub is a concurrency-safe fan-out dispatcher. Each listener receives
// events on its own buffered channel.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
	last      *Event
}

// NewHub constructs a hub with the given per-listener buffer size. A default
// of 8 is used when bufSize <= 0.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 8
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister the returned id.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers ev to every listener, dropping it for listeners that
// are not keeping up.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &ev
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// PublishPanel wraps a panel snapshot. Its signature matches
// inspire.PanelOptions.Notify.
func (h *Hub) PublishPanel(snap inspire.Snapshot) {
	h.Broadcast(Event{Type: EventPanel, Panel: snap})
}

// latest returns the most recent event, if any.
func (h *Hub) latest() (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return Event{}, false
	}
	return *h.last, true
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
