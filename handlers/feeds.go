package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/irisdrone/library/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the REST routes; tokens guard this one
	},
}

// HandleFeedWebSocket handles GET /ws/books
func (h *Handler) HandleFeedWebSocket(c *gin.Context) {
	if h.feedHub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Book feed not enabled"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	userID := "anonymous"
	if id, ok := IdentityFrom(c); ok {
		userID = id.Username
	}

	client := services.NewFeedClient(h.feedHub, conn, userID, c.ClientIP())
	if err := h.feedHub.Register(client); err != nil {
		h.log.Warn().Err(err).Str("user", userID).Msg("feed hub rejected client")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// GetFeedHubStats handles GET /api/feeds/stats
func (h *Handler) GetFeedHubStats(c *gin.Context) {
	if h.feedHub == nil {
		c.JSON(http.StatusOK, gin.H{
			"enabled": false,
		})
		return
	}

	stats := h.feedHub.Stats()
	resp := gin.H{
		"enabled":       true,
		"clients":       stats.Clients,
		"subscriptions": stats.Subscriptions,
		"books":         stats.Keys,
	}
	if h.bus != nil {
		resp["nats"] = h.bus.GetStats()
	}
	c.JSON(http.StatusOK, resp)
}
