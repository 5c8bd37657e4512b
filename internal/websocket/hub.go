package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"studytrack/internal/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UserChannel is the redis pub/sub channel carrying updates for one user.
func UserChannel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}

// client owns one connection. Only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans messages out to every open connection of a user. Messages arrive
// through redis pub/sub, so any server instance can publish to any user.
type Hub struct {
	mu          sync.RWMutex
	clients     map[uuid.UUID]map[*client]struct{}
	redisClient *redis.Client
	auth        *middleware.JWTAuth
	cancelFuncs map[uuid.UUID]context.CancelFunc
}

// NewHub creates a hub. With a nil redis client only SendToUser delivers.
func NewHub(redisClient *redis.Client, auth *middleware.JWTAuth) *Hub {
	return &Hub{
		clients:     make(map[uuid.UUID]map[*client]struct{}),
		redisClient: redisClient,
		auth:        auth,
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on websocket requests, so the token comes as a query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	identity, err := h.auth.ParseToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(identity.UserID, c)
	go h.writePump(c)
	go h.readPump(identity.UserID, c)
}

func (h *Hub) readPump(userID uuid.UUID, c *client) {
	defer h.unregister(userID, c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(userID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[userID] = set
	}
	set[c] = struct{}{}

	// First connection for this user starts the pub/sub subscription
	if len(set) == 1 && h.redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[userID] = cancel
		go h.subscribe(ctx, userID)
	}

	log.Printf("websocket: user %s connected (total: %d)", userID, len(set))
}

func (h *Hub) unregister(userID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.clients[userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	c.close()

	if len(set) == 0 {
		delete(h.clients, userID)
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
			delete(h.cancelFuncs, userID)
		}
	}

	log.Printf("websocket: user %s disconnected", userID)
}

func (h *Hub) subscribe(ctx context.Context, userID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, UserChannel(userID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, []byte(msg.Payload))
		}
	}
}

// broadcast queues data on every connection of userID. A connection whose
// buffer is full is slow; the message is dropped for it.
func (h *Hub) broadcast(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			log.Printf("websocket: dropping message for slow client of user %s", userID)
		}
	}
}

// SendToUser delivers msg to this instance's connections of userID only.
func (h *Hub) SendToUser(userID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(userID, data)
}

// Connections reports how many connections userID has on this instance.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for c := range set {
			c.close()
		}
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
		}
	}
	h.clients = make(map[uuid.UUID]map[*client]struct{})
	h.cancelFuncs = make(map[uuid.UUID]context.CancelFunc)
}
