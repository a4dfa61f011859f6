package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmynk/splitshare/internal/models"
)

// fakeResolver serves canned users for the direct message path.
type fakeResolver struct {
	users map[string]*models.User
}

func (r *fakeResolver) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.users[id], nil
}

func dialTestHub(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendFrame(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal frame data: %v", err)
	}
	if err := ws.WriteJSON(frame{Event: event, Data: raw}); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
}

func readFrame(t *testing.T, ws *websocket.Conn) frame {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := ws.ReadJSON(&f); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return f
}

// waitForSubscribers blocks until the channel has n subscribers; joins are
// processed asynchronously by the read pump.
func waitForSubscribers(t *testing.T, hub *Hub, channel string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		count := len(hub.channels[channel])
		hub.mu.RUnlock()
		if count == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("channel %s never reached %d subscribers", channel, n)
}

func TestHubGroupBroadcast(t *testing.T) {
	hub := NewHub(&fakeResolver{})
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	ws := dialTestHub(t, server.URL)
	sendFrame(t, ws, "joinGroup", joinGroupData{GroupID: "g1"})
	waitForSubscribers(t, hub, GroupChannel("g1"), 1)

	hub.PublishToGroup("g1", "expenseAdded", map[string]string{"id": "e1"})

	f := readFrame(t, ws)
	if f.Event != "expenseAdded" {
		t.Fatalf("event = %s, want expenseAdded", f.Event)
	}
	var payload map[string]string
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload["id"] != "e1" {
		t.Errorf("payload id = %s, want e1", payload["id"])
	}
}

func TestHubNoDeliveryAcrossChannels(t *testing.T) {
	hub := NewHub(&fakeResolver{})
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	ws := dialTestHub(t, server.URL)
	sendFrame(t, ws, "joinGroup", joinGroupData{GroupID: "g1"})
	waitForSubscribers(t, hub, GroupChannel("g1"), 1)

	// Event for another group must not reach this connection.
	hub.PublishToGroup("other", "expenseAdded", map[string]string{"id": "e1"})
	hub.PublishToGroup("g1", "expenseAdded", map[string]string{"id": "e2"})

	f := readFrame(t, ws)
	var payload map[string]string
	json.Unmarshal(f.Data, &payload)
	if payload["id"] != "e2" {
		t.Errorf("received %s, want only the g1 event e2", payload["id"])
	}
}

func TestHubUserChannel(t *testing.T) {
	hub := NewHub(&fakeResolver{})
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	ws := dialTestHub(t, server.URL)
	sendFrame(t, ws, "joinUser", joinUserData{UserID: "u1"})
	waitForSubscribers(t, hub, UserChannel("u1"), 1)

	hub.PublishToUser("u1", "ping", map[string]string{"hello": "there"})

	f := readFrame(t, ws)
	if f.Event != "ping" {
		t.Fatalf("event = %s, want ping", f.Event)
	}
}

func TestHubDirectMessagePath(t *testing.T) {
	resolver := &fakeResolver{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Alice", Email: "alice@example.com"},
	}}
	hub := NewHub(resolver)
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	receiver := dialTestHub(t, server.URL)
	sendFrame(t, receiver, "joinGroup", joinGroupData{GroupID: "g1"})
	waitForSubscribers(t, hub, GroupChannel("g1"), 1)

	sender := dialTestHub(t, server.URL)
	sendFrame(t, sender, "sendMessage", sendMessageData{GroupID: "g1", UserID: "u1", Message: "yo"})

	f := readFrame(t, receiver)
	if f.Event != "newMessage" {
		t.Fatalf("event = %s, want newMessage", f.Event)
	}
	var payload directMessage
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.User != "Alice" || payload.UserID != "u1" || payload.Message != "yo" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.Time == "" {
		t.Error("expected a timestamp")
	}
}

func TestHubDirectMessageUnknownSender(t *testing.T) {
	hub := NewHub(&fakeResolver{})
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	receiver := dialTestHub(t, server.URL)
	sendFrame(t, receiver, "joinGroup", joinGroupData{GroupID: "g1"})
	waitForSubscribers(t, hub, GroupChannel("g1"), 1)

	sender := dialTestHub(t, server.URL)
	sendFrame(t, sender, "sendMessage", sendMessageData{GroupID: "g1", UserID: "ghost", Message: "boo"})

	f := readFrame(t, receiver)
	var payload directMessage
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.User != "Unknown" {
		t.Errorf("user = %s, want Unknown fallback", payload.User)
	}
}

func TestHubCleansUpOnDisconnect(t *testing.T) {
	hub := NewHub(&fakeResolver{})
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	ws := dialTestHub(t, server.URL)
	sendFrame(t, ws, "joinGroup", joinGroupData{GroupID: "g1"})
	sendFrame(t, ws, "joinUser", joinUserData{UserID: "u1"})
	waitForSubscribers(t, hub, GroupChannel("g1"), 1)
	waitForSubscribers(t, hub, UserChannel("u1"), 1)

	ws.Close()

	waitForSubscribers(t, hub, GroupChannel("g1"), 0)
	waitForSubscribers(t, hub, UserChannel("u1"), 0)
}
