package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"stackit/internal/microservices/events"
)

// Message protocol definitions

// Frame types sent by clients
const (
	FrameJoinQuestion  = "join-question"
	FrameLeaveQuestion = "leave-question"
	FrameJoinGlobal    = "join-global"
	FrameLeaveGlobal   = "leave-global"
	FramePing          = "ping"
)

// Frame types sent by the server, besides event frames
const (
	FrameWelcome = "welcome"
	FrameJoined  = "joined"
	FrameLeft    = "left"
	FramePong    = "pong"
	FrameError   = "error"
)

const (
	ErrCodeBadFrame     = "bad_frame"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeNotConnected = "not_connected"
)

var questionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ControlFrame is a request from a client, e.g.
//
//	{"type":"join-question","questionId":"42"}
type ControlFrame struct {
	Type       string `json:"type"`
	QuestionID string `json:"questionId,omitempty"`
}

// ParseControlFrame decodes and validates a client frame.
func ParseControlFrame(data []byte) (*ControlFrame, error) {
	var f ControlFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.New("frame is not valid JSON")
	}
	switch f.Type {
	case FrameJoinQuestion, FrameLeaveQuestion:
		if !questionIDPattern.MatchString(f.QuestionID) {
			return nil, fmt.Errorf("%s needs a valid questionId", f.Type)
		}
	case FrameJoinGlobal, FrameLeaveGlobal, FramePing:
	default:
		return nil, fmt.Errorf("unknown frame type %q", f.Type)
	}
	return &f, nil
}

// Room is the room a join/leave frame refers to.
func (f *ControlFrame) Room() string {
	switch f.Type {
	case FrameJoinGlobal, FrameLeaveGlobal:
		return events.GlobalRoom
	}
	return events.QuestionRoom(f.QuestionID)
}

// ServerFrame is everything the server writes. Event frames carry the
// event type in Type and its socket name in Event.
type ServerFrame struct {
	Type      string    `json:"type"`
	Event     string    `json:"event,omitempty"`
	Room      string    `json:"room,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewServerFrame(frameType, room string, payload any) *ServerFrame {
	return &ServerFrame{
		Type:      frameType,
		Room:      room,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// EventFrame wraps ev for delivery to room.
func EventFrame(ev events.Event, room string) *ServerFrame {
	return &ServerFrame{
		Type:      string(ev.Type),
		Event:     events.Routes[ev.Type].Name,
		Room:      room,
		Payload:   ev.Payload,
		Timestamp: ev.Timestamp,
	}
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorFrame(code, message string) *ServerFrame {
	return NewServerFrame(FrameError, "", errorPayload{Code: code, Message: message})
}

// ToJSON: marshal frame to JSON
func (f *ServerFrame) ToJSON() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		slog.Error("Failed to marshal frame to JSON", "type", f.Type, "error", err)
		return nil, err
	}
	return data, nil
}
