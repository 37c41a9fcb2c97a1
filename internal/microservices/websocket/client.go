package websocket

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Individual client connection handler

const ( // ping pong(2-way heartbeat) to keep connection alive
	WriteWait      = 10 * time.Second    // max time to write a message to the peer
	PongWait       = 60 * time.Second    // no pong within this window = dead connection
	PingPeriod     = (PongWait * 9) / 10 // 90% of pong wait, leaves room for network jitter
	MaxMessageSize = 4096                // maximum control frame size allowed from peer

	DefaultSendBuffer = 256

	controlRate  = 10 // control frames per second
	controlBurst = 20
)

type ConnState int32

const (
	StateConnecting ConnState = iota
	StateConnected
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

type Client struct {
	ID       string          // unique per connection
	UserID   string          // empty for anonymous viewers
	Username string
	conn     *websocket.Conn // nil in tests that never start the pumps
	send     chan []byte     // outbound frames, closed by Hub.Unregister
	hub      *Hub
	limiter  *rate.Limiter
	state    atomic.Int32
	rooms    map[string]struct{} // guarded by hub.mu
	logger   *slog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, username string, sendBuffer int) *Client {
	if sendBuffer < 1 {
		sendBuffer = DefaultSendBuffer
	}
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		Username: username,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		hub:      hub,
		limiter:  rate.NewLimiter(rate.Limit(controlRate), controlBurst),
		rooms:    make(map[string]struct{}),
		logger:   hub.logger,
	}
}

func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) setState(s ConnState) {
	c.state.Store(int32(s))
}

// enqueue never blocks. Callers hold hub.mu so send cannot be closed
// underneath them.
func (c *Client) enqueue(frame []byte) bool {
	if c.State() != StateConnected {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// ReadPump reads control frames until the connection fails, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("client_read_failed", "client_id", c.ID, "error", err)
			}
			return
		}
		if !c.limiter.Allow() {
			c.reply(errorFrame(ErrCodeRateLimited, "too many control frames"))
			continue
		}
		c.handleControl(data)
	}
}

// WritePump drains the send queue onto the socket and keeps the peer alive
// with pings. It owns all writes to conn.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				// hub closed the queue
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("client_write_failed", "client_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleControl(data []byte) {
	frame, err := ParseControlFrame(data)
	if err != nil {
		c.reply(errorFrame(ErrCodeBadFrame, err.Error()))
		return
	}

	switch frame.Type {
	case FramePing:
		c.reply(NewServerFrame(FramePong, "", nil))
		return
	case FrameJoinQuestion, FrameJoinGlobal:
		room := frame.Room()
		if err := c.hub.Join(c.ID, room); err != nil {
			c.reply(errorFrame(ErrCodeNotConnected, err.Error()))
			return
		}
		c.reply(NewServerFrame(FrameJoined, room, nil))
	case FrameLeaveQuestion, FrameLeaveGlobal:
		room := frame.Room()
		if err := c.hub.Leave(c.ID, room); err != nil {
			c.reply(errorFrame(ErrCodeNotConnected, err.Error()))
			return
		}
		c.reply(NewServerFrame(FrameLeft, room, nil))
	}
}

func (c *Client) reply(frame *ServerFrame) {
	data, err := frame.ToJSON()
	if err != nil {
		return
	}
	if !c.hub.sendTo(c, data) {
		c.logger.Debug("client_reply_dropped", "client_id", c.ID, "type", frame.Type)
	}
}
