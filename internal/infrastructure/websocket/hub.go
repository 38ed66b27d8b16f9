package websocket

import (
	"sync"

	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client is one watcher connection on a property's live bid feed.
type Client struct {
	conn       *websocket.Conn
	userID     string
	propertyID string
	mu         sync.Mutex
}

func NewClient(conn *websocket.Conn, userID, propertyID string) *Client {
	return &Client{conn: conn, userID: userID, propertyID: propertyID}
}

func (c *Client) Send(message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(message)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Hub tracks live bid feed watchers per property.
type Hub struct {
	watchers map[string]map[string]*Client // propertyID -> userID -> client
	mu       sync.RWMutex
	log      logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		watchers: make(map[string]map[string]*Client),
		log:      log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.watchers[client.propertyID] == nil {
		h.watchers[client.propertyID] = make(map[string]*Client)
	}
	h.watchers[client.propertyID][client.userID] = client

	h.log.Info("Feed watcher registered", "user_id", client.userID, "property_id", client.propertyID)
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if propertyWatchers, exists := h.watchers[client.propertyID]; exists {
		delete(propertyWatchers, client.userID)
		if len(propertyWatchers) == 0 {
			delete(h.watchers, client.propertyID)
		}
	}

	h.log.Info("Feed watcher unregistered", "user_id", client.userID, "property_id", client.propertyID)
}

// BroadcastToProperty sends message to every watcher of the property.
// Failed writes drop that watcher's connection.
func (h *Hub) BroadcastToProperty(propertyID string, message interface{}) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.watchers[propertyID]))
	for _, client := range h.watchers[propertyID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.Send(message); err != nil {
			h.log.Warn("Dropping unreachable feed watcher",
				"user_id", client.userID, "property_id", propertyID, "error", err)
			client.Close()
			h.Unregister(client)
		}
	}
}
