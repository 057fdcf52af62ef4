package display

import (
	"courtchat/app/model"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/do"
)

const defaultDeliverTimeout = 2 * time.Second

type EventType string

const (
	EventStreamStart    EventType = "stream-start"
	EventStreamMessage  EventType = "stream-message"
	EventMessageReceive EventType = "message-receive"
	EventActionsReceive EventType = "actions-receive"
)

type Event struct {
	Type           EventType              `json:"type"`
	Message        *model.Message         `json:"message,omitempty"`
	ActionsEnabled bool                   `json:"actionsEnabled,omitempty"`
	Actions        []model.ActionResponse `json:"actions,omitempty"`
}

var _ do.Shutdownable = (*Hub)(nil)

// Hub fans display events out to subscribers. A subscriber that does not keep up loses
// stream deltas. Final messages and actions wait for it up to deliverTimeout.
type Hub struct {
	mu             sync.Mutex
	subs           map[int]chan Event
	nextID         int
	closed         bool
	deliverTimeout time.Duration
}

func New(_ *do.Injector) (*Hub, error) {
	return NewHub(), nil
}

func NewHub() *Hub {
	return &Hub{
		subs:           make(map[int]chan Event),
		deliverTimeout: defaultDeliverTimeout,
	}
}

// Subscribe registers a listener, the returned func unsubscribes it and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *Hub) StreamStart() {
	h.publish(Event{Type: EventStreamStart})
}

func (h *Hub) StreamMessage(msg model.Message) {
	h.publish(Event{Type: EventStreamMessage, Message: &msg})
}

func (h *Hub) MessageReceive(msg model.Message, actionsEnabled bool) {
	slog.Info("Message", "role", msg.Role, "name", msg.Name, "content", msg.Content)

	h.publish(Event{Type: EventMessageReceive, Message: &msg, ActionsEnabled: actionsEnabled})
}

func (h *Hub) ActionsReceive(actions []model.ActionResponse) {
	if len(actions) > 0 {
		slog.Info("Actions", "actions", actions)
	}

	h.publish(Event{Type: EventActionsReceive, Actions: actions})
}

// publish drops stream deltas for a full subscriber, the next one carries the whole text.
// Other events wait up to deliverTimeout.
func (h *Hub) publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- event:
			continue
		default:
		}

		if event.Type == EventStreamMessage {
			slog.Warn("Display subscriber is full, dropping event", "subscriber", id, "type", event.Type)
			continue
		}

		timer := time.NewTimer(h.deliverTimeout)
		select {
		case ch <- event:
		case <-timer.C:
			slog.Warn("Display subscriber timed out, dropping event", "subscriber", id, "type", event.Type)
		}
		timer.Stop()
	}
}

func (h *Hub) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.closed = true

	return nil
}
