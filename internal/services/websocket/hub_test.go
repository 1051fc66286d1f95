package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lolo20020803/ProyectoSBC/internal/logger"
)

func startHub(t *testing.T) (*HubService, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHubService(4, logger.Discard())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if !hub.Register(r.Context(), conn) {
			conn.Close()
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Unregister(ctx, conn)
				return
			}
		}
	}))

	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesEveryViewer(t *testing.T) {
	hub, server := startHub(t)
	a := dial(t, server)
	b := dial(t, server)
	waitForClients(t, hub, 2)

	if !hub.Broadcast([]byte(`{"type":"result"}`)) {
		t.Fatal("Broadcast() dropped the message")
	}

	for i, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("viewer %d ReadMessage() error = %v", i, err)
		}
		if string(msg) != `{"type":"result"}` {
			t.Errorf("viewer %d got %s", i, msg)
		}
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastDropsWhenQueueFull(t *testing.T) {
	hub := NewHubService(1, logger.Discard())

	if !hub.Broadcast([]byte("first")) {
		t.Fatal("first Broadcast() should be queued")
	}
	if hub.Broadcast([]byte("second")) {
		t.Error("second Broadcast() should be dropped while the hub is not running")
	}
}
