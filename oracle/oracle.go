package oracle

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("oracle unavailable")

// Question pairs a generated question with its ground-truth answer.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Judgment is the verdict on one user answer. Points are awarded by the
// oracle itself (10 for a correct answer under the default policy) and are
// zero whenever IsCorrect is false.
type Judgment struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
	Points    int    `json:"points"`
}

// Gateway is the boundary where natural-language text enters and leaves the
// game logic. Both calls are synchronous; any transport, parsing or schema
// failure is reported as ErrUnavailable so callers can retry safely.
type Gateway interface {
	GenerateQuestion(ctx context.Context, topic string, history []string) (*Question, error)
	JudgeAnswer(ctx context.Context, question, correctAnswer, userAnswer string) (*Judgment, error)
}
