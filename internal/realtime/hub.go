// Package realtime maintains ephemeral subscriptions of live websocket
// connections to named broadcast channels and fans events out to them.
//
// Two channel kinds exist: "user:<id>" for direct notifications and
// "group:<id>" for group broadcasts. A connection subscribes by announcing
// a user ID or a group ID; no server-side check ties the subscription to
// actual group membership. That trust boundary is deliberate: channels only
// carry data the subscriber could also fetch over the authenticated API.
//
// The subscription table lives in process memory and is rebuilt empty on
// restart; channel membership is inherently ephemeral. Delivery is
// fire-and-forget: at most once per currently subscribed connection, no
// backlog or replay, ordering preserved only per sender.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mmynk/splitshare/internal/models"
)

var (
	subscriptionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splitshare_realtime_subscriptions",
		Help: "Current number of live channel subscriptions.",
	})
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitshare_realtime_events_published_total",
		Help: "Events published to realtime channels.",
	}, []string{"event"})
)

// UserResolver resolves a user ID to a user record. Satisfied by
// storage.Store; the hub needs it to name senders on the direct message
// path.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// GroupChannel returns the broadcast channel name for a group.
func GroupChannel(groupID string) string { return "group:" + groupID }

// UserChannel returns the private channel name for a user.
func UserChannel(userID string) string { return "user:" + userID }

// Hub routes events to subscribed connections. Safe for concurrent use.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*conn]struct{}
	users    UserResolver
}

// NewHub creates an empty hub.
func NewHub(users UserResolver) *Hub {
	return &Hub{
		channels: make(map[string]map[*conn]struct{}),
		users:    users,
	}
}

// PublishToGroup delivers an event to every connection currently subscribed
// to the group's channel.
func (h *Hub) PublishToGroup(groupID, event string, payload any) {
	h.publish(GroupChannel(groupID), event, payload)
}

// PublishToUser delivers an event to every connection currently subscribed
// to the user's private channel.
func (h *Hub) PublishToUser(userID, event string, payload any) {
	h.publish(UserChannel(userID), event, payload)
}

func (h *Hub) publish(channel, event string, payload any) {
	data, err := json.Marshal(frame{Event: event, Data: mustRaw(payload)})
	if err != nil {
		slog.Error("Failed to encode realtime event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	subscribers := make([]*conn, 0, len(h.channels[channel]))
	for c := range h.channels[channel] {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	eventsPublished.WithLabelValues(event).Inc()
	for _, c := range subscribers {
		c.enqueue(data)
	}

	slog.Debug("Event published", "channel", channel, "event", event, "subscribers", len(subscribers))
}

// subscribe adds a connection to a channel.
func (h *Hub) subscribe(channel string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[*conn]struct{})
		h.channels[channel] = subs
	}
	if _, ok := subs[c]; !ok {
		subs[c] = struct{}{}
		subscriptionsGauge.Inc()
	}
}

// unsubscribeAll removes a connection from every channel it joined.
// Called once when the connection dies.
func (h *Hub) unsubscribeAll(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, subs := range h.channels {
		if _, ok := subs[c]; ok {
			delete(subs, c)
			subscriptionsGauge.Dec()
		}
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
}

// frame is the wire envelope for every realtime message, inbound and
// outbound.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func mustRaw(payload any) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
