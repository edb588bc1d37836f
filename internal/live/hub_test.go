package live

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jejuboard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var hello services.Event
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != EventConnected {
		t.Fatalf("expected connected event, got %+v err=%v", hello, err)
	}
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	a := dial(t, hub)
	b := dial(t, hub)
	if n := hub.Clients(); n != 2 {
		t.Fatalf("clients = %d", n)
	}

	hub.Publish(services.Event{Type: services.EventPostCreated, PostID: 7})

	for _, conn := range []*websocket.Conn{a, b} {
		var e services.Event
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("read: %v", err)
		}
		if e.Type != services.EventPostCreated || e.PostID != 7 {
			t.Errorf("unexpected event %+v", e)
		}
	}
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client not removed, clients = %d", hub.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}

	// 没有客户端时发布不应阻塞
	hub.Publish(services.Event{Type: services.EventPostDeleted, PostID: 1})
}
