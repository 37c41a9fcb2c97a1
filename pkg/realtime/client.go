// Package realtime is a Go client for the /ws endpoint. It keeps one
// connection open, re-dials with backoff when it drops, re-joins the rooms
// it was in and fans frames out to listeners by type.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// ErrReconnectExhausted is returned by Run once every reconnect attempt has
// failed. Callers should fall back to polling.
var ErrReconnectExhausted = errors.New("realtime: reconnect attempts exhausted")

// AnyType subscribes a listener to every frame.
const AnyType = "*"

const (
	DefaultInitialInterval = time.Second
	DefaultMaxInterval     = 5 * time.Second
	DefaultMaxAttempts     = 5
)

// Frame is one server frame. Event frames carry the event type
// (VOTE_UPDATE, ...) in Type, control replies carry welcome, joined, pong...
type Frame struct {
	Type      string          `json:"type"`
	Event     string          `json:"event,omitempty"`
	Room      string          `json:"room,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Decode unmarshals the payload into v.
func (f Frame) Decode(v any) error {
	return json.Unmarshal(f.Payload, v)
}

type Listener func(Frame)

type Options struct {
	URL   string // ws://host/ws
	Token string // optional bearer token

	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int

	Dialer *websocket.Dialer
	Logger *slog.Logger
}

type controlFrame struct {
	Type       string `json:"type"`
	QuestionID string `json:"questionId,omitempty"`
}

type Client struct {
	opts Options

	mu    sync.Mutex // guards conn and all writes to it
	conn  *websocket.Conn
	joins map[string]controlFrame // room -> frame that joins it

	lmu       sync.RWMutex
	listeners map[string]map[uint64]Listener
	nextID    uint64
}

func New(opts Options) *Client {
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = DefaultInitialInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = DefaultMaxInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		opts:      opts,
		joins:     make(map[string]controlFrame),
		listeners: make(map[string]map[uint64]Listener),
	}
}

// On registers fn for frames of frameType (or AnyType). The returned func
// removes it and may be called any number of times.
func (c *Client) On(frameType string, fn Listener) (unsubscribe func()) {
	c.lmu.Lock()
	c.nextID++
	id := c.nextID
	if c.listeners[frameType] == nil {
		c.listeners[frameType] = make(map[uint64]Listener)
	}
	c.listeners[frameType][id] = fn
	c.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.lmu.Lock()
			defer c.lmu.Unlock()
			delete(c.listeners[frameType], id)
			if len(c.listeners[frameType]) == 0 {
				delete(c.listeners, frameType)
			}
		})
	}
}

func (c *Client) dispatch(f Frame) {
	c.lmu.RLock()
	var fns []Listener
	for _, fn := range c.listeners[f.Type] {
		fns = append(fns, fn)
	}
	for _, fn := range c.listeners[AnyType] {
		fns = append(fns, fn)
	}
	c.lmu.RUnlock()

	for _, fn := range fns {
		fn(f)
	}
}

func (c *Client) JoinQuestion(questionID string) error {
	return c.join("question-"+questionID, controlFrame{Type: "join-question", QuestionID: questionID})
}

func (c *Client) LeaveQuestion(questionID string) error {
	return c.leave("question-"+questionID, controlFrame{Type: "leave-question", QuestionID: questionID})
}

func (c *Client) JoinGlobal() error {
	return c.join("global", controlFrame{Type: "join-global"})
}

func (c *Client) LeaveGlobal() error {
	return c.leave("global", controlFrame{Type: "leave-global"})
}

// Ping asks the server for a pong frame.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(controlFrame{Type: "ping"})
}

// join remembers the room so it survives reconnects. While disconnected the
// frame is sent on the next connect.
func (c *Client) join(room string, f controlFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joins[room] = f
	return c.writeLocked(f)
}

func (c *Client) leave(room string, f controlFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.joins, room)
	return c.writeLocked(f)
}

// caller holds c.mu
func (c *Client) writeLocked(f controlFrame) error {
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(f)
}

// Connected reports whether a socket is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run connects and reads until ctx is cancelled or reconnecting gives up.
// It returns ctx.Err() or an error wrapping ErrReconnectExhausted.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.dialWithRetry(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", ErrReconnectExhausted, err)
		}

		if err := c.attach(conn); err != nil {
			c.opts.Logger.Warn("realtime_rejoin_failed", "error", err)
		}
		err = c.readLoop(ctx, conn)
		c.detach()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.opts.Logger.Info("realtime_disconnected", "error", err)
	}
}

func (c *Client) dialWithRetry(ctx context.Context) (*websocket.Conn, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.opts.InitialInterval
	exp.MaxInterval = c.opts.MaxInterval
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.opts.MaxAttempts-1)), ctx)

	header := http.Header{}
	if c.opts.Token != "" {
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	attempt := 0
	var conn *websocket.Conn
	err := backoff.Retry(func() error {
		attempt++
		cn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, header)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				return backoff.Permanent(fmt.Errorf("dial %s: unauthorized", c.opts.URL))
			}
			c.opts.Logger.Debug("realtime_dial_failed", "attempt", attempt, "error", err)
			return err
		}
		conn = cn
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// attach installs conn and replays every remembered join.
func (c *Client) attach(conn *websocket.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	for _, f := range c.joins {
		if err := c.writeLocked(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.opts.Logger.Warn("realtime_bad_frame", "error", err)
			continue
		}
		c.dispatch(f)
	}
}
