package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains campaign_id -> set of connections and broadcasts send-progress
// events to admin panels watching a campaign.
type Hub struct {
	// campaignID -> map[clientID]*Client
	rooms  map[uuid.UUID]map[string]*Client
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[uuid.UUID]map[string]*Client),
		logger: logger,
	}
}

// Register adds a client to a campaign room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.CampaignID] == nil {
		h.rooms[c.CampaignID] = make(map[string]*Client)
	}
	h.rooms[c.CampaignID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client watching campaign",
		zap.String("client_id", c.ID), zap.String("campaign_id", c.CampaignID.String()))
}

// Unregister removes a client from its campaign room.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.CampaignID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.CampaignID)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client stopped watching campaign",
		zap.String("client_id", c.ID), zap.String("campaign_id", c.CampaignID.String()))
}

// Broadcast sends an event to all clients watching a campaign.
func (h *Hub) Broadcast(campaignID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	// Snapshot the room under the lock: Register/Unregister mutate the inner
	// map, so it must not be ranged after the lock is released.
	h.mu.RLock()
	room := h.rooms[campaignID]
	clients := make([]*Client, 0, len(room))
	for _, c := range room {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// WatcherCount returns the number of connected clients for a campaign.
func (h *Hub) WatcherCount(campaignID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[campaignID])
}
