// Package live 通过 WebSocket 向在线客户端广播帖子、评论和点赞的变化
package live

import (
	"log"
	"net/http"
	"sync"
	"time"

	"jejuboard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	EventConnected = "connected"

	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	readLimit    = 512
)

type client struct {
	conn *websocket.Conn
	send chan services.Event
}

// Hub 只推送不接收；客户端发来的消息全部丢弃
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish 发送缓冲已满的客户端会被断开
func (h *Hub) Publish(e services.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			log.Printf("[Live] 客户端过慢，断开连接 %s", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	// 注册完成后才发送，客户端收到它就说明不会漏掉后续事件
	c.send <- services.Event{Type: EventConnected, At: time.Now()}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeWS GET /ws
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Live] WebSocket 升级失败: %v", err)
		return
	}

	cl := &client{conn: conn, send: make(chan services.Event, sendBuffer)}
	h.add(cl)
	go h.writeLoop(cl)
	h.readLoop(cl)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for e := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(e); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}

func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(readLimit)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
