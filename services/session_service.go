package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"triviarcade/engine"
	"triviarcade/models"

	"gorm.io/gorm"
)

const DefaultLeaderboardSize = 5

type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

func (s *SessionService) CreateSession(playerName string) (uint, error) {
	session := models.GameSession{
		PlayerName: playerName,
		TotalScore: 0,
		StartTime:  time.Now(),
	}

	if err := s.db.Create(&session).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", engine.ErrStoreUnavailable, err)
	}
	return session.ID, nil
}

func (s *SessionService) RecordAnswer(ctx context.Context, entry *models.AnswerLog) error {
	var session models.GameSession
	if err := s.db.WithContext(ctx).First(&session, entry.SessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.ErrSessionNotFound
		}
		return fmt.Errorf("%w: %v", engine.ErrStoreUnavailable, err)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("%w: %v", engine.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SessionService) AddScore(ctx context.Context, sessionID uint, points int) error {
	result := s.db.WithContext(ctx).Model(&models.GameSession{}).
		Where("id = ?", sessionID).
		Update("total_score", gorm.Expr("total_score + ?", points))

	if result.Error != nil {
		return fmt.Errorf("%w: %v", engine.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return engine.ErrSessionNotFound
	}
	return nil
}

// Leaderboard returns up to topN sessions ordered by score; ties go to the
// session that started earlier.
func (s *SessionService) Leaderboard(topN int) ([]models.GameSession, error) {
	if topN <= 0 {
		topN = DefaultLeaderboardSize
	}

	var sessions []models.GameSession
	err := s.db.Order("total_score DESC, start_time ASC").
		Limit(topN).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrStoreUnavailable, err)
	}
	return sessions, nil
}
