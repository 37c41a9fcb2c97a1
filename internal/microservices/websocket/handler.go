package websocket

import (
	"net/http"

	"stackit/internal/microservices/http-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HTTP upgrade handler to WebSocket connections

type Handler struct {
	hub        *Hub
	sendBuffer int
	upgrader   websocket.Upgrader
}

// NewHandler builds the /ws endpoint. An empty allowedOrigins accepts any
// origin.
func NewHandler(hub *Hub, sendBuffer int, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:        hub,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Serve upgrades the request. It runs behind middleware.OptionalAuth, so
// anonymous viewers can watch rooms too.
func (h *Handler) Serve(c *gin.Context) {
	var userID, username string
	if p, ok := middleware.GetPrincipal(c); ok {
		userID, username = p.UserID, p.Username
	}

	// upgrade HTTP connection to WebSocket; the upgrader writes its own error response
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Warn("websocket_upgrade_failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, userID, username, h.sendBuffer)
	h.hub.Register(client)

	// start goroutines for read and write pumps
	go client.WritePump()
	go client.ReadPump()

	client.reply(NewServerFrame(FrameWelcome, "", gin.H{
		"clientId": client.ID,
		"userId":   userID,
	}))
}

// Stats serves GET /ws/stats.
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.hub.Stats()})
}
