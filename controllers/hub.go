package controllers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"restaurant-admin/logger"
	"restaurant-admin/models"
	"restaurant-admin/services"
)

const (
	EventOrdersSnapshot = "ordersSnapshot"
	EventOrdersError    = "ordersError"

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope pushed to dashboard sockets.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type client struct {
	conn    *websocket.Conn
	session models.Session
	writeMu sync.Mutex
}

func (cl *client) send(data []byte) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans order snapshots out to every connected dashboard.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{clients: map[string]*client{}, log: log.WithComponent("hub")}
}

// Attach subscribes the hub to the order feed. The returned func detaches it.
func (h *Hub) Attach(feed *services.LiveOrderFeed) func() {
	offSnapshot := feed.OnSnapshot(func(views []models.OrderView) {
		h.BroadcastOrders(views)
	})
	offError := feed.OnError(func(err error) {
		h.broadcast(func(models.Session) interface{} {
			return Message{Event: EventOrdersError, Payload: "live order updates are unavailable, showing the last snapshot"}
		})
	})
	return func() {
		offSnapshot()
		offError()
	}
}

// BroadcastOrders sends each client the part of views it may see.
func (h *Hub) BroadcastOrders(views []models.OrderView) {
	h.broadcast(func(s models.Session) interface{} {
		return Message{Event: EventOrdersSnapshot, Payload: filterForSession(views, s)}
	})
}

func (h *Hub) broadcast(build func(models.Session) interface{}) {
	h.mu.Lock()
	targets := make(map[string]*client, len(h.clients))
	for id, cl := range h.clients {
		targets[id] = cl
	}
	h.mu.Unlock()

	for id, cl := range targets {
		data, err := json.Marshal(build(cl.session))
		if err != nil {
			h.log.Error("failed to encode message", "error", err)
			continue
		}
		if err := cl.send(data); err != nil {
			h.log.Warn("dropping websocket client", "client_id", id, "error", err)
			h.remove(id)
		}
	}
}

func (h *Hub) add(cl *client) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.clients[id] = cl
	h.mu.Unlock()
	return id
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	cl, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		cl.conn.Close()
	}
}

// Clients reports how many sockets are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops every client.
func (h *Hub) Close() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		h.remove(id)
	}
}

func filterForSession(views []models.OrderView, s models.Session) []models.OrderView {
	if !s.IsDriver() {
		return views
	}
	out := make([]models.OrderView, 0, len(views))
	for _, v := range views {
		if v.DriverID == s.StaffID {
			out = append(out, v)
		}
	}
	return out
}

// HandleWebSocket upgrades the request, sends the current snapshot and keeps the
// client registered until it disconnects.
func HandleWebSocket(hub *Hub, app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := CurrentSession(c)
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Warn("websocket upgrade failed", "error", err)
			return
		}
		cl := &client{conn: conn, session: session}
		id := hub.add(cl)
		hub.log.Info("websocket client connected", "client_id", id, "staff_id", session.StaffID)

		first, err := json.Marshal(Message{Event: EventOrdersSnapshot, Payload: filterForSession(app.Orders.Snapshot(), session)})
		if err == nil {
			if err := cl.send(first); err != nil {
				hub.remove(id)
				return
			}
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.remove(id)
				hub.log.Info("websocket client disconnected", "client_id", id)
				return
			}
		}
	}
}
