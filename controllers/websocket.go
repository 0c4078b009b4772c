package controllers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 10 * time.Second
	wsSendBuffer = 16
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient owns one connection. Only its writer goroutine writes to conn.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans new predictions out to every connected websocket client.
// Broadcast never blocks: a client whose queue is full is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	log     *logrus.Entry
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{clients: make(map[*wsClient]struct{}), log: log}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and keeps the connection registered
// until the client goes away. Incoming messages are ignored.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.log.WithField("clients", h.Count()).Info("websocket client connected")

	go h.writePump(client)
	defer func() {
		h.remove(client)
		conn.Close()
		h.log.WithField("clients", h.Count()).Info("websocket client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast queues v as JSON for every client.
func (h *Hub) Broadcast(v interface{}) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.WithError(err).Error("failed to encode broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.log.Warn("dropping slow websocket client")
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) writePump(client *wsClient) {
	defer client.conn.Close()
	for msg := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.WithError(err).Warn("websocket write failed")
			h.remove(client)
			return
		}
	}
	// queue closed: the hub dropped this client
	client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too slow"))
}

func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}
