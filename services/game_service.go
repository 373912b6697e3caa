package services

import (
	"context"

	"triviarcade/engine"
	"triviarcade/models"

	"github.com/gin-gonic/gin"
)

// SessionStore covers what the driver needs from the session records. The
// judged-answer writes go through the engine's own store dependency.
type SessionStore interface {
	CreateSession(playerName string) (uint, error)
	Leaderboard(topN int) ([]models.GameSession, error)
}

// GameService drives the engine across its external boundary: it owns session
// creation and the start/resume orchestration but delegates every state
// transition to the engine.
type GameService struct {
	engine *engine.Engine
	store  SessionStore
	hub    *Hub
}

func NewGameService(eng *engine.Engine, store SessionStore, hub *Hub) *GameService {
	return &GameService{
		engine: eng,
		store:  store,
		hub:    hub,
	}
}

type StartGameRequest struct {
	PlayerName string `json:"player_name" binding:"required"`
	Topic      string `json:"topic" binding:"required"`
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

type StartGameResponse struct {
	SessionID uint   `json:"session_id"`
	Question  string `json:"question"`
	Score     int    `json:"score"`
	GameOver  bool   `json:"game_over"`
}

type SubmitAnswerResponse struct {
	SessionID    uint   `json:"session_id"`
	Score        int    `json:"score"`
	GameOver     bool   `json:"game_over"`
	Feedback     string `json:"feedback"`
	NextQuestion string `json:"next_question,omitempty"`
}

type LeaderboardEntry struct {
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
	Date       string `json:"date"`
}

func (s *GameService) StartGame(ctx context.Context, req *StartGameRequest) (*StartGameResponse, error) {
	sessionID, err := s.store.CreateSession(req.PlayerName)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.engine.Start(ctx, sessionID, req.PlayerName, req.Topic)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, "question", gin.H{
			"question":       snapshot.Question,
			"question_count": snapshot.QuestionCount,
			"score":          snapshot.Score,
		})
	}

	return &StartGameResponse{
		SessionID: snapshot.SessionID,
		Question:  snapshot.Question,
		Score:     snapshot.Score,
		GameOver:  snapshot.GameOver,
	}, nil
}

func (s *GameService) SubmitAnswer(ctx context.Context, sessionID uint, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	snapshot, err := s.engine.Submit(ctx, sessionID, req.Answer)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, "answer_judged", gin.H{
			"feedback":       snapshot.Feedback,
			"score":          snapshot.Score,
			"question_count": snapshot.QuestionCount,
		})
		if snapshot.GameOver {
			s.hub.BroadcastToSession(sessionID, "game_over", gin.H{
				"final_score": snapshot.Score,
			})
		} else {
			s.hub.BroadcastToSession(sessionID, "question", gin.H{
				"question":       snapshot.Question,
				"question_count": snapshot.QuestionCount,
				"score":          snapshot.Score,
			})
		}
	}

	response := &SubmitAnswerResponse{
		SessionID: snapshot.SessionID,
		Score:     snapshot.Score,
		GameOver:  snapshot.GameOver,
		Feedback:  snapshot.Feedback,
	}
	if !snapshot.GameOver {
		response.NextQuestion = snapshot.Question
	}
	return response, nil
}

func (s *GameService) Leaderboard(topN int) ([]LeaderboardEntry, error) {
	sessions, err := s.store.Leaderboard(topN)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(sessions))
	for _, session := range sessions {
		entries = append(entries, LeaderboardEntry{
			PlayerName: session.PlayerName,
			Score:      session.TotalScore,
			Date:       session.StartTime.Format("2006-01-02"),
		})
	}
	return entries, nil
}
