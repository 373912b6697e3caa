package models

import (
	"time"
)

// AnswerLog is a write-only ledger row: one judged answer per insert,
// never updated or deleted afterwards.
type AnswerLog struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	SessionID     uint      `json:"session_id" gorm:"not null;index"`
	Question      string    `json:"question" gorm:"not null"`
	CorrectAnswer string    `json:"correct_answer" gorm:"not null"`
	UserAnswer    string    `json:"user_answer" gorm:"not null"`
	IsCorrect     bool      `json:"is_correct" gorm:"not null"`
	Feedback      string    `json:"feedback" gorm:"not null"`
	Points        int       `json:"points" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`

	// Relationships
	Session GameSession `json:"session,omitempty"`
}
