package brackets

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	return hub
}

func TestHubPublishDeliversToRegisteredClients(t *testing.T) {
	hub := startHub(t)
	defer hub.Stop()

	first := &Client{Hub: hub, Send: make(chan []byte, 4)}
	second := &Client{Hub: hub, Send: make(chan []byte, 4)}
	hub.Register <- first
	hub.Register <- second
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish("status_updated", map[string]int{"athlete_id": 7})

	for _, c := range []*Client{first, second} {
		select {
		case raw := <-c.Send:
			var msg WebSocketMessage
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, "status_updated", msg.Type)
			assert.NotEmpty(t, msg.ID)
			assert.Equal(t, map[string]interface{}{"athlete_id": float64(7)}, msg.Payload)
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
}

func TestHubPublishSkipsFullClient(t *testing.T) {
	hub := startHub(t)
	defer hub.Stop()

	slow := &Client{Hub: hub, Send: make(chan []byte)}
	hub.Register <- slow
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		hub.Publish("group_updated", nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a client without buffer space")
	}
}

func TestHubUnregisterAndStopCloseSend(t *testing.T) {
	hub := startHub(t)

	leaving := &Client{Hub: hub, Send: make(chan []byte, 1)}
	staying := &Client{Hub: hub, Send: make(chan []byte, 1)}
	hub.Register <- leaving
	hub.Register <- staying
	hub.Unregister <- leaving
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	_, ok := <-leaving.Send
	assert.False(t, ok)

	hub.Stop()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	_, ok = <-staying.Send
	assert.False(t, ok)

	// после закрытия рассылка просто ничего не делает
	hub.Publish("match_created", nil)
}

func TestHubOverWebSocket(t *testing.T) {
	hub := startHub(t)
	defer hub.Stop()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 8)}
		hub.Register <- client
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("winner_declared", map[string]int{"match_id": 3})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "winner_declared", msg.Type)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
