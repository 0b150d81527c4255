package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

type PresenceEvent string

const (
	EventAgentConnected    PresenceEvent = "AgentConnected"
	EventAgentDisconnected PresenceEvent = "AgentDisconnected"
	EventBreakStarted      PresenceEvent = "BreakStarted"
	EventBreakEnded        PresenceEvent = "BreakEnded"
	EventInactiveStarted   PresenceEvent = "InactiveStarted"
)

type Message struct {
	WorkspaceID uuid.UUID                   `json:"workspace_id"`
	Event       PresenceEvent               `json:"event"`
	Record      *presence.WorkingTimeRecord `json:"record,omitempty"`
}

type Client struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	Outbound    chan Message
	done        chan struct{}
	closeOnce   sync.Once
}

func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub fans presence changes out to SSE clients, one channel per workspace.
type Hub struct {
	mu   sync.RWMutex
	log  *logger.Logger
	byWS map[uuid.UUID]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:  log.With("component", "RealtimeHub"),
		byWS: make(map[uuid.UUID]map[*Client]bool),
	}
}

func (h *Hub) Subscribe(userID, workspaceID uuid.UUID) *Client {
	c := &Client{
		ID:          uuid.New(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Outbound:    make(chan Message, 16),
		done:        make(chan struct{}),
	}
	h.mu.Lock()
	clients, ok := h.byWS[workspaceID]
	if !ok {
		clients = make(map[*Client]bool)
		h.byWS[workspaceID] = clients
	}
	clients[c] = true
	h.mu.Unlock()

	h.log.Debug("sse client subscribed", "client_id", c.ID, "workspace_id", workspaceID)
	return c
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	if clients, ok := h.byWS[c.WorkspaceID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.byWS, c.WorkspaceID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// PresenceChanged broadcasts a record change to every client watching the
// workspace. Slow clients are skipped, never blocked on.
func (h *Hub) PresenceChanged(workspaceID uuid.UUID, event PresenceEvent, rec *presence.WorkingTimeRecord) {
	msg := Message{WorkspaceID: workspaceID, Event: event, Record: rec}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byWS[workspaceID] {
		select {
		case c.Outbound <- msg:
		default:
			h.log.Debug("dropping presence message for slow client", "client_id", c.ID)
		}
	}
}
