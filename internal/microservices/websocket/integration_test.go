package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stackit/internal/microservices/events"
	"stackit/internal/microservices/http-api/middleware"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuth accepts the token "good" only
type stubAuth struct{}

func (stubAuth) Authenticate(ctx context.Context, token string) (*service.Principal, error) {
	if token == "good" {
		return &service.Principal{UserID: "u1", Username: "alice", Role: models.RoleUser}, nil
	}
	return nil, service.ErrUnauthorized
}

func (stubAuth) IssueToken(user *models.User) (string, error) { return "good", nil }

func (stubAuth) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	return "", nil, errors.New("not supported")
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub, *Broadcaster) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	b := NewBroadcaster(hub, nil)
	h := NewHandler(hub, 64, nil)

	r := gin.New()
	r.GET("/ws", middleware.OptionalAuth(stubAuth{}), h.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
	})
	return srv, hub, b
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f ServerFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil skips frames until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, frameType string) ServerFrame {
	t.Helper()
	for {
		f := readFrame(t, conn)
		if f.Type == frameType {
			return f
		}
	}
}

func TestWebSocket_JoinAndReceive(t *testing.T) {
	srv, hub, b := newTestServer(t)
	conn := dial(t, srv, "?token=good")

	welcome := readUntil(t, conn, FrameWelcome)
	payload := welcome.Payload.(map[string]any)
	assert.Equal(t, "u1", payload["userId"])

	require.NoError(t, conn.WriteJSON(ControlFrame{Type: FrameJoinQuestion, QuestionID: "42"}))
	joined := readUntil(t, conn, FrameJoined)
	assert.Equal(t, "question-42", joined.Room)
	assert.Equal(t, 1, hub.RoomSize("question-42"))

	_, err := b.Deliver(events.New(events.AnswerAccepted, "99", events.AnswerAcceptedPayload{AnswerID: "x", IsAccepted: true}))
	require.NoError(t, err)
	_, err = b.Deliver(events.New(events.AnswerAccepted, "42", events.AnswerAcceptedPayload{AnswerID: "y", IsAccepted: true}))
	require.NoError(t, err)

	got := readFrame(t, conn)
	assert.Equal(t, "ANSWER_ACCEPTED", got.Type)
	assert.Equal(t, "answer-accepted", got.Event)
	assert.Equal(t, "question-42", got.Room)
	assert.Equal(t, "y", got.Payload.(map[string]any)["answerId"])
}

func TestWebSocket_AnonymousAndPing(t *testing.T) {
	srv, _, _ := newTestServer(t)
	conn := dial(t, srv, "")

	welcome := readUntil(t, conn, FrameWelcome)
	assert.Equal(t, "", welcome.Payload.(map[string]any)["userId"])

	require.NoError(t, conn.WriteJSON(ControlFrame{Type: FramePing}))
	readUntil(t, conn, FramePong)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join-question"}`)))
	errFrame := readUntil(t, conn, FrameError)
	assert.Equal(t, ErrCodeBadFrame, errFrame.Payload.(map[string]any)["code"])
}

func TestWebSocket_BadTokenRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bad"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_DisconnectLeavesRooms(t *testing.T) {
	srv, hub, _ := newTestServer(t)
	conn := dial(t, srv, "")
	readUntil(t, conn, FrameWelcome)

	require.NoError(t, conn.WriteJSON(ControlFrame{Type: FrameJoinGlobal}))
	readUntil(t, conn, FrameJoined)
	require.Equal(t, 1, hub.RoomSize(events.GlobalRoom))

	conn.Close()
	assert.Eventually(t, func() bool {
		return hub.RoomSize(events.GlobalRoom) == 0 && hub.Stats().Connections == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_RateLimited(t *testing.T) {
	srv, _, _ := newTestServer(t)
	conn := dial(t, srv, "")
	readUntil(t, conn, FrameWelcome)

	for i := 0; i < controlBurst+10; i++ {
		require.NoError(t, conn.WriteJSON(ControlFrame{Type: FramePing}))
	}

	for {
		f := readFrame(t, conn)
		if f.Type != FrameError {
			continue
		}
		raw, _ := json.Marshal(f.Payload)
		assert.Contains(t, string(raw), ErrCodeRateLimited)
		return
	}
}
