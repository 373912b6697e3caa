package models

import (
	"time"

	"gorm.io/gorm"
)

type GameSession struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	PlayerName string         `json:"player_name" gorm:"not null"`
	TotalScore int            `json:"total_score" gorm:"not null;default:0"`
	StartTime  time.Time      `json:"start_time"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Answers []AnswerLog `json:"answers,omitempty" gorm:"foreignKey:SessionID"`
}
