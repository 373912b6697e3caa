package engine

// Phase tracks where a session sits in the turn cycle. Only awaiting_answer,
// generating and terminal are ever persisted; judging exists for the duration
// of a single Submit call.
type Phase string

const (
	PhaseGenerating     Phase = "generating"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseJudging        Phase = "judging"
	PhaseTerminal       Phase = "terminal"
)

// TurnState is the mutable per-session document. The engine owns it for the
// duration of a turn; everyone else sees Snapshot copies.
type TurnState struct {
	SessionID  uint   `json:"session_id"`
	PlayerName string `json:"player_name"`
	Topic      string `json:"topic"`

	QuestionCount int  `json:"question_count"`
	Score         int  `json:"score"`
	GameOver      bool `json:"game_over"`
	Phase         Phase `json:"phase"`

	CurrentQuestion string `json:"current_question"`
	CurrentAnswer   string `json:"current_answer"` // ground truth, never leaves the engine
	UserAnswer      string `json:"user_answer"`
	LastFeedback    string `json:"last_feedback"`

	// Messages is the display transcript, append-only.
	Messages []string `json:"messages"`
	// AskedQuestions tracks every question generated for this session so the
	// oracle can be told not to repeat itself.
	AskedQuestions []string `json:"asked_questions"`
}

func NewTurnState(sessionID uint, playerName, topic string) *TurnState {
	return &TurnState{
		SessionID:      sessionID,
		PlayerName:     playerName,
		Topic:          topic,
		Phase:          PhaseGenerating,
		Messages:       []string{},
		AskedQuestions: []string{},
	}
}

// Snapshot is the externally visible copy of a turn. The correct answer is
// structurally absent so it can never leak to a caller.
type Snapshot struct {
	SessionID     uint     `json:"session_id"`
	Question      string   `json:"question,omitempty"`
	Score         int      `json:"score"`
	QuestionCount int      `json:"question_count"`
	GameOver      bool     `json:"game_over"`
	Feedback      string   `json:"feedback,omitempty"`
	Messages      []string `json:"messages"`
}

// Snapshot copies the externally visible parts of the state. The terminal
// snapshot carries no question.
func (s *TurnState) Snapshot() *Snapshot {
	messages := make([]string, len(s.Messages))
	copy(messages, s.Messages)

	snap := &Snapshot{
		SessionID:     s.SessionID,
		Score:         s.Score,
		QuestionCount: s.QuestionCount,
		GameOver:      s.GameOver,
		Feedback:      s.LastFeedback,
		Messages:      messages,
	}
	if !s.GameOver {
		snap.Question = s.CurrentQuestion
	}
	return snap
}
