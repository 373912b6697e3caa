package routes

import (
	"net/http"
	"strconv"

	"triviarcade/handlers"
	"triviarcade/logger"
	"triviarcade/monitoring"
	"triviarcade/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	gameHandler *handlers.GameHandler,
	hub *services.Hub,
) {
	// API routes
	api := router.Group("/api")
	{
		games := api.Group("/games")
		{
			games.POST("", gameHandler.StartGame)
			games.POST("/:id/answer", gameHandler.SubmitAnswer)
		}

		api.GET("/leaderboard", gameHandler.Leaderboard)
	}

	// WebSocket endpoint for watching a session live
	router.GET("/ws/:id", func(c *gin.Context) {
		sessionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Log.Warn("websocket upgrade failed",
				zap.Uint64("session_id", sessionID), zap.Error(err))
			return
		}

		hub.RegisterClient(conn, uint(sessionID))
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	router.GET("/metrics", monitoring.PrometheusHandler())
}
