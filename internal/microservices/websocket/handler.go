package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// allow all origins for development purpose; can restrict later
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades the HTTP request to a websocket connection and starts
// the client pumps. Identity is claimed afterwards via the identify message,
// not at upgrade time, so an unidentified connection simply receives no
// pushes.
func WSHandler(registry *Registry, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("WebSocket upgrade failed", "error", err)
			return
		}

		client := NewClient(conn, registry, logger)
		logger.Info("WebSocket connected", "remote", conn.RemoteAddr().String())

		go client.WritePump()
		go client.ReadPump()
	}
}
