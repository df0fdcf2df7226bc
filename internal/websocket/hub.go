package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/staffsched/approvals/internal/approval"
	"github.com/staffsched/approvals/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event names broadcast to dashboards
const (
	EventApprovalCreated  = "approval.created"
	EventApprovalApproved = "approval.approved"
	EventApprovalRejected = "approval.rejected"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Event is the JSON frame sent to dashboards. RequesterID and ApproverID decide who sees it.
type Event struct {
	Event       string     `json:"event"`
	ApprovalID  string     `json:"approval_id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	RequesterID *uuid.UUID `json:"requester_id,omitempty"`
	ApproverID  *uuid.UUID `json:"approver_id,omitempty"`
	At          time.Time  `json:"at"`
}

// visibleTo follows the list rule of the admin panel: admins see everything, others see
// the requests they submitted or must decide.
func (e Event) visibleTo(s middleware.Session) bool {
	if approval.Role(s.Role) == approval.RoleAdmin {
		return true
	}
	return (e.RequesterID != nil && *e.RequesterID == s.UserID) ||
		(e.ApproverID != nil && *e.ApproverID == s.UserID)
}

// SessionParser verifies the token a dashboard presents on upgrade.
type SessionParser interface {
	Parse(token string) (middleware.Session, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the token query param is the gate, not the origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one connected dashboard
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session middleware.Session
	send    chan []byte
}

// Hub owns the client set and fans events out to the clients allowed to see them.
type Hub struct {
	clients    map[*Client]struct{}
	events     chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		events:     make(chan Event, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run dispatches until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("websocket client connected",
				zap.String("user_id", client.session.UserID.String()), zap.String("role", client.session.Role))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.log.Debug("websocket client disconnected", zap.String("user_id", client.session.UserID.String()))
			}
			h.mu.Unlock()
		case ev := <-h.events:
			h.dispatch(ev)
		}
	}
}

func (h *Hub) dispatch(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("failed to encode websocket event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !ev.visibleTo(client.session) {
			continue
		}
		select {
		case client.send <- payload:
		default:
			h.log.Debug("dropping slow websocket client", zap.String("user_id", client.session.UserID.String()))
			h.drop(client)
		}
	}
}

// drop removes client and closes its queue. Caller holds mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}

// enqueue hands client to the Run loop, giving up once the hub has stopped.
func (h *Hub) enqueue(ch chan *Client, client *Client) bool {
	select {
	case ch <- client:
		return true
	case <-h.done:
		return false
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues ev for dispatch. It never blocks: with a full queue the event is dropped and logged.
func (h *Hub) Publish(ev Event) {
	select {
	case h.events <- ev:
	default:
		h.log.Warn("websocket event queue full, dropping event",
			zap.String("event", ev.Event), zap.String("approval_id", ev.ApprovalID))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// one frame per event so dashboards can JSON-decode each message
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for disconnects and pongs; dashboards send nothing meaningful.
func (c *Client) readPump() {
	defer func() {
		c.hub.enqueue(c.hub.unregister, c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// ServeWs upgrades an authenticated dashboard connection. Browsers cannot set headers on
// the upgrade request, so the session token travels in the token query parameter.
func ServeWs(hub *Hub, c *gin.Context, auth SessionParser) {
	tokenString := c.Query("token")
	if tokenString == "" {
		hub.log.Debug("websocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	session, err := auth.Parse(tokenString)
	if err != nil {
		hub.log.Debug("websocket connection rejected: invalid token", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !approval.Role(session.Role).IsValid() {
		hub.log.Debug("websocket connection rejected: role not allowed", zap.String("role", session.Role))
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: hub, conn: conn, session: session, send: make(chan []byte, sendBuffer)}
	if !hub.enqueue(hub.register, client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
