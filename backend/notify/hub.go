package notify

import (
	"context"
	"sync"
	"time"

	"learnify/backend/models"
	"learnify/backend/utils"

	"github.com/google/uuid"
)

const EventNotification = "notification"

// Event is one message pushed to a user's open streams.
type Event struct {
	ID     string              `json:"id"`
	UserID uint                `json:"user_id"`
	Name   string              `json:"event"`
	Data   models.Notification `json:"data"`
	SentAt time.Time           `json:"sent_at"`
}

func NewNotificationEvent(n models.Notification, now time.Time) Event {
	return Event{
		ID:     uuid.NewString(),
		UserID: n.UserID,
		Name:   EventNotification,
		Data:   n,
		SentAt: now,
	}
}

// Publisher hands an event to whatever delivers it to subscribers and
// reports how many streams received it. Publishers that deliver
// asynchronously report 0 and acknowledge from their forwarder instead.
type Publisher interface {
	Publish(ctx context.Context, ev Event) (int, error)
}

type Client struct {
	ID       uuid.UUID
	UserID   uint
	Outbound chan Event
}

// Hub fans events out to the streams each user has open on this instance.
type Hub struct {
	mu      sync.RWMutex
	log     *utils.Logger
	clients map[uint]map[*Client]bool
}

var _ Publisher = (*Hub)(nil)

func NewHub(log *utils.Logger) *Hub {
	return &Hub{
		log:     log.With("component", "NotificationHub"),
		clients: make(map[uint]map[*Client]bool),
	}
}

func (h *Hub) Subscribe(userID uint) *Client {
	c := &Client{ID: uuid.New(), UserID: userID, Outbound: make(chan Event, 16)}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*Client]bool)
		h.clients[userID] = set
	}
	set[c] = true
	h.log.Debug("stream subscribed", "client_id", c.ID, "user", userID)
	return c
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.log.Debug("stream unsubscribed", "client_id", c.ID, "user", c.UserID)
}

// Deliver pushes ev to every local stream of its user and returns how many
// received it. Slow clients with a full buffer miss the event.
func (h *Hub) Deliver(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients[ev.UserID] {
		select {
		case c.Outbound <- ev:
			n++
		default:
			h.log.Warn("dropping event; outbound buffer full", "client_id", c.ID)
		}
	}
	return n
}

func (h *Hub) Publish(_ context.Context, ev Event) (int, error) {
	return h.Deliver(ev), nil
}

func (h *Hub) Subscribers(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
