package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"triviarcade/models"
	"triviarcade/oracle"
)

// SessionStore is the durable side of a judged answer: the audit row and the
// cumulative score. The gorm-backed implementation lives in services.
type SessionStore interface {
	RecordAnswer(ctx context.Context, entry *models.AnswerLog) error
	AddScore(ctx context.Context, sessionID uint, points int) error
}

// Engine runs the two-stage turn cycle: generate a question, suspend until the
// player answers, judge, then either finish or generate again. Between calls
// the only state is the checkpoint, so a session can resume across processes.
type Engine struct {
	checkpoints  CheckpointStore
	store        SessionStore
	oracle       oracle.Gateway
	maxQuestions int

	mu     sync.Mutex
	active map[uint]struct{}
}

func New(checkpoints CheckpointStore, store SessionStore, gateway oracle.Gateway, maxQuestions int) *Engine {
	return &Engine{
		checkpoints:  checkpoints,
		store:        store,
		oracle:       gateway,
		maxQuestions: maxQuestions,
		active:       make(map[uint]struct{}),
	}
}

// acquire claims exclusive use of a session. Operations on different sessions
// run in parallel; a second concurrent call for the same session is rejected
// instead of racing on the checkpoint.
func (e *Engine) acquire(sessionID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.active[sessionID]; busy {
		return false
	}
	e.active[sessionID] = struct{}{}
	return true
}

func (e *Engine) release(sessionID uint) {
	e.mu.Lock()
	delete(e.active, sessionID)
	e.mu.Unlock()
}

// Start creates the turn state for a new session, generates the first
// question and suspends until the player answers. Nothing is persisted if the
// oracle call fails.
func (e *Engine) Start(ctx context.Context, sessionID uint, playerName, topic string) (*Snapshot, error) {
	if !e.acquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer e.release(sessionID)

	if _, err := e.checkpoints.Load(ctx, sessionID); err == nil {
		return nil, fmt.Errorf("%w: session %d already started", ErrInvalidState, sessionID)
	} else if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	state := NewTurnState(sessionID, playerName, topic)
	if err := e.generateQuestion(ctx, state); err != nil {
		return nil, err
	}

	if err := e.checkpoints.Save(ctx, state); err != nil {
		return nil, err
	}
	return state.Snapshot(), nil
}

// Submit resumes a suspended session with the player's answer: judge, record
// the audit row, bump the durable score, then either finish the game or
// generate the next question.
//
// The judged checkpoint is saved before the next generation call, so a
// generation failure leaves the session resumable without re-judging; a
// retried Submit then picks up at the generation step and cannot double-count
// the score or duplicate the audit row.
func (e *Engine) Submit(ctx context.Context, sessionID uint, userAnswer string) (*Snapshot, error) {
	if !e.acquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer e.release(sessionID)

	state, err := e.checkpoints.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state.GameOver || state.Phase == PhaseTerminal {
		return nil, ErrInvalidState
	}

	if state.Phase == PhaseAwaitingAnswer {
		state.UserAnswer = userAnswer
		state.Phase = PhaseJudging

		judgment, err := e.oracle.JudgeAnswer(ctx, state.CurrentQuestion, state.CurrentAnswer, userAnswer)
		if err != nil {
			return nil, err
		}

		entry := &models.AnswerLog{
			SessionID:     state.SessionID,
			Question:      state.CurrentQuestion,
			CorrectAnswer: state.CurrentAnswer,
			UserAnswer:    userAnswer,
			IsCorrect:     judgment.IsCorrect,
			Feedback:      judgment.Feedback,
			Points:        judgment.Points,
		}
		if err := e.store.RecordAnswer(ctx, entry); err != nil {
			return nil, err
		}
		if err := e.store.AddScore(ctx, state.SessionID, judgment.Points); err != nil {
			return nil, err
		}

		state.Score += judgment.Points
		state.QuestionCount++
		state.LastFeedback = judgment.Feedback
		state.Messages = append(state.Messages, "Judge: "+judgment.Feedback)

		if state.QuestionCount >= e.maxQuestions {
			state.GameOver = true
			state.Phase = PhaseTerminal
			if err := e.checkpoints.Save(ctx, state); err != nil {
				return nil, err
			}
			return state.Snapshot(), nil
		}

		state.Phase = PhaseGenerating
		if err := e.checkpoints.Save(ctx, state); err != nil {
			return nil, err
		}
	}

	// Phase is now generating, either from the judging step above or from a
	// checkpoint left behind by a failed generation call.
	if err := e.generateQuestion(ctx, state); err != nil {
		return nil, err
	}

	if err := e.checkpoints.Save(ctx, state); err != nil {
		return nil, err
	}
	return state.Snapshot(), nil
}

func (e *Engine) generateQuestion(ctx context.Context, state *TurnState) error {
	question, err := e.oracle.GenerateQuestion(ctx, state.Topic, state.AskedQuestions)
	if err != nil {
		return err
	}

	state.CurrentQuestion = question.Question
	state.CurrentAnswer = question.Answer
	state.UserAnswer = ""
	state.AskedQuestions = append(state.AskedQuestions, question.Question)
	state.Messages = append(state.Messages, "Host: "+question.Question)
	state.Phase = PhaseAwaitingAnswer
	return nil
}
