package websocket

import (
	"errors"
	"log/slog"
	"sync"
)

// Central registry of live connections and the rooms they joined.
// Rooms exist only while they have members; nothing here is persisted.

var ErrClientNotFound = errors.New("client not found")

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // clientID -> client
	rooms   map[string]map[string]*Client // roomID -> clientID -> client
	logger  *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		logger:  slog.Default(),
	}
}

// Register makes c addressable and moves it to Connected.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	c.setState(StateConnected)
	h.logger.Info("client_added",
		"client_id", c.ID,
		"user_id", c.UserID,
	)
}

// Unregister drops c from every room and closes its send queue. Safe to
// call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.State() == StateDisconnected {
		return
	}
	for roomID := range c.rooms {
		h.removeFromRoom(c, roomID)
	}
	delete(h.clients, c.ID)
	c.setState(StateDisconnected)
	close(c.send)
	h.logger.Info("client_removed",
		"client_id", c.ID,
	)
}

func (h *Hub) Join(clientID, roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[c.ID] = c
	c.rooms[roomID] = struct{}{}
	h.logger.Debug("client_joined_room", "client_id", c.ID, "room", roomID)
	return nil
}

func (h *Hub) Leave(clientID, roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}
	h.removeFromRoom(c, roomID)
	h.logger.Debug("client_left_room", "client_id", c.ID, "room", roomID)
	return nil
}

// caller holds h.mu
func (h *Hub) removeFromRoom(c *Client, roomID string) {
	delete(c.rooms, roomID)
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, c.ID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Broadcast queues frame for every member of roomID and returns how many
// accepted it. A member whose queue is full misses this frame.
func (h *Hub) Broadcast(roomID string, frame []byte) int {
	h.mu.RLock() // read lock: concurrent broadcasts are fine
	defer h.mu.RUnlock()
	delivered := 0
	for id, c := range h.rooms[roomID] {
		if c.enqueue(frame) {
			delivered++
			continue
		}
		h.logger.Warn("send_queue_full",
			"client_id", id,
			"room", roomID,
		)
	}
	return delivered
}

// sendTo queues a frame for one client, e.g. a reply to its own request.
func (h *Hub) sendTo(c *Client, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.State() != StateConnected {
		return false
	}
	return c.enqueue(frame)
}

func (h *Hub) Rooms(clientID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[clientID]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

type Stats struct {
	Connections int            `json:"connections"`
	Rooms       map[string]int `json:"rooms"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Stats{Connections: len(h.clients), Rooms: make(map[string]int, len(h.rooms))}
	for id, members := range h.rooms {
		s.Rooms[id] = len(members)
	}
	return s
}

// CloseAll disconnects everyone, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}
