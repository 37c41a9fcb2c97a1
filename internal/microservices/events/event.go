// Package events defines the real-time notifications emitted after a
// committed write, and the rooms each kind is delivered to.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	VoteUpdate      EventType = "VOTE_UPDATE"
	NewAnswer       EventType = "NEW_ANSWER"
	AnswerAccepted  EventType = "ANSWER_ACCEPTED"
	QuestionUpdated EventType = "QUESTION_UPDATED"
	AnswerUpdated   EventType = "ANSWER_UPDATED"
	QuestionDeleted EventType = "QUESTION_DELETED"
	AnswerDeleted   EventType = "ANSWER_DELETED"
)

// GlobalRoom receives the feed-level events.
const GlobalRoom = "global"

const questionRoomPrefix = "question-"

// QuestionRoom names the room for one question thread.
func QuestionRoom(questionID string) string {
	return questionRoomPrefix + questionID
}

// Event is one notification. QuestionID is the routing key and is not sent
// to clients outside the payload.
type Event struct {
	Type       EventType `json:"type"`
	QuestionID string    `json:"-"`
	Payload    any       `json:"payload"`
	Timestamp  time.Time `json:"timestamp"`
}

func New(t EventType, questionID string, payload any) Event {
	return Event{
		Type:       t,
		QuestionID: questionID,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
}

// Rooms returns the rooms e is delivered to, question room first.
func (e Event) Rooms() ([]string, error) {
	route, ok := Routes[e.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.QuestionID == "" {
		return nil, fmt.Errorf("event %s has no question id", e.Type)
	}
	rooms := []string{QuestionRoom(e.QuestionID)}
	if route.Global {
		rooms = append(rooms, GlobalRoom)
	}
	return rooms, nil
}

// Route says where an event kind goes and what it is called on the wire.
type Route struct {
	Name   string
	Global bool
}

var Routes = map[EventType]Route{
	VoteUpdate:      {Name: "vote-update", Global: true},
	NewAnswer:       {Name: "new-answer", Global: true},
	AnswerAccepted:  {Name: "answer-accepted"},
	QuestionUpdated: {Name: "question-updated", Global: true},
	AnswerUpdated:   {Name: "answer-updated"},
	QuestionDeleted: {Name: "question-deleted", Global: true},
	AnswerDeleted:   {Name: "answer-deleted"},
}

// Envelope is the cross-instance form of an Event. Payload is kept raw so a
// relay can forward it without knowing the concrete type.
type Envelope struct {
	Origin     string          `json:"origin"`
	Type       EventType       `json:"type"`
	QuestionID string          `json:"questionId"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (e Event) Envelope(origin string) (*Envelope, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", e.Type, err)
	}
	return &Envelope{
		Origin:     origin,
		Type:       e.Type,
		QuestionID: e.QuestionID,
		Payload:    payload,
		Timestamp:  e.Timestamp,
	}, nil
}

// Event rebuilds the event; the payload stays as raw JSON.
func (env *Envelope) Event() Event {
	return Event{
		Type:       env.Type,
		QuestionID: env.QuestionID,
		Payload:    env.Payload,
		Timestamp:  env.Timestamp,
	}
}
