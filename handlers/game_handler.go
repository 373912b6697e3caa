package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"triviarcade/engine"
	"triviarcade/logger"
	"triviarcade/monitoring"
	"triviarcade/oracle"
	"triviarcade/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GameHandler struct {
	gameService *services.GameService
}

func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) StartGame(c *gin.Context) {
	var req services.StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.gameService.StartGame(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	monitoring.GamesStarted.Inc()
	c.JSON(http.StatusCreated, response)
}

func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	sessionID, err := parseSessionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.gameService.SubmitAnswer(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *GameHandler) Leaderboard(c *gin.Context) {
	topN := services.DefaultLeaderboardSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		topN = n
	}

	entries, err := h.gameService.Leaderboard(topN)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// respondError maps domain errors to HTTP statuses. Internal failures get a
// generic body; the detail only goes to the log.
func (h *GameHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, engine.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game already finished"})
	case errors.Is(err, engine.ErrSessionBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Another request for this session is in flight, retry shortly"})
	case errors.Is(err, oracle.ErrUnavailable):
		logger.Log.Error("oracle call failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Question service temporarily unavailable, retry shortly"})
	case errors.Is(err, engine.ErrStoreUnavailable):
		logger.Log.Error("session store call failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage temporarily unavailable, retry shortly"})
	default:
		logger.Log.Error("unhandled game error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func parseSessionID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
