package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	// sendBuffer is the per-connection outbound queue. A subscriber that
	// falls this far behind is disconnected rather than throttling the
	// publisher; delivery is at-most-once anyway.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin; auth on channels is the
	// documented trust boundary, not the origin check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// conn is one live websocket connection with its outbound queue.
type conn struct {
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Handler returns the HTTP handler that upgrades requests to websocket
// connections and services them until disconnect.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("Websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
			return
		}

		c := &conn{hub: h, ws: ws, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
		slog.Info("Websocket connected", "remote_addr", r.RemoteAddr)

		go c.writePump()
		c.readPump()
	})
}

// enqueue queues outbound data without blocking the publisher. A full
// queue closes the connection.
func (c *conn) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		c.ws.Close()
	}
}

// readPump consumes inbound frames until the connection dies, then tears
// down all of the connection's subscriptions.
func (c *conn) readPump() {
	defer func() {
		c.hub.unsubscribeAll(c)
		close(c.done)
		c.ws.Close()
		slog.Info("Websocket disconnected", "remote_addr", c.ws.RemoteAddr().String())
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Websocket read error", "error", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			slog.Warn("Malformed realtime frame", "error", err)
			continue
		}
		c.dispatch(f)
	}
}

// writePump drains the outbound queue and keeps the connection alive with
// pings.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Inbound event payloads.
type joinUserData struct {
	UserID string `json:"userId"`
}

type joinGroupData struct {
	GroupID string `json:"groupId"`
}

type sendMessageData struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// directMessage is the transient broadcast shape of the direct-socket
// message path. It mirrors the legacy flat chat shape and is never
// persisted; only the HTTP chat endpoint writes to the group's message log.
type directMessage struct {
	User    string `json:"user"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

func (c *conn) dispatch(f frame) {
	switch f.Event {
	case "joinUser":
		var d joinUserData
		if err := json.Unmarshal(f.Data, &d); err != nil || d.UserID == "" {
			return
		}
		c.hub.subscribe(UserChannel(d.UserID), c)
		slog.Debug("Connection joined user channel", "user_id", d.UserID)

	case "joinGroup":
		var d joinGroupData
		if err := json.Unmarshal(f.Data, &d); err != nil || d.GroupID == "" {
			return
		}
		c.hub.subscribe(GroupChannel(d.GroupID), c)
		slog.Debug("Connection joined group channel", "group_id", d.GroupID)

	case "sendMessage":
		var d sendMessageData
		if err := json.Unmarshal(f.Data, &d); err != nil || d.GroupID == "" {
			return
		}
		c.hub.broadcastDirect(d)

	default:
		slog.Debug("Unknown realtime event", "event", f.Event)
	}
}

// broadcastDirect resolves the sender's display name and rebroadcasts the
// message to the group channel without creating a durable record.
func (h *Hub) broadcastDirect(d sendMessageData) {
	userName := "Unknown"
	if d.UserID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		user, err := h.users.GetUserByID(ctx, d.UserID)
		if err != nil {
			slog.Error("Failed to resolve direct message sender", "user_id", d.UserID, "error", err)
		} else if user != nil {
			userName = user.Name
			if userName == "" {
				userName = user.Email
			}
		}
	}

	h.PublishToGroup(d.GroupID, "newMessage", directMessage{
		User:    userName,
		UserID:  d.UserID,
		Message: d.Message,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}
