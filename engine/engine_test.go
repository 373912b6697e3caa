package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"triviarcade/models"
	"triviarcade/oracle"
)

// fakeOracle serves numbered questions and judges an answer correct when it
// matches the ground truth exactly.
type fakeOracle struct {
	mu         sync.Mutex
	genCalls   int
	judgeCalls int
	genErr     error
	judgeErr   error

	// judgeEntered/judgeRelease let a test hold a Submit mid-judging.
	judgeEntered chan struct{}
	judgeRelease chan struct{}
}

func (f *fakeOracle) GenerateQuestion(ctx context.Context, topic string, history []string) (*oracle.Question, error) {
	f.mu.Lock()
	f.genCalls++
	n := f.genCalls
	err := f.genErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &oracle.Question{
		Question: fmt.Sprintf("%s question %d", topic, n),
		Answer:   fmt.Sprintf("answer %d", n),
	}, nil
}

func (f *fakeOracle) JudgeAnswer(ctx context.Context, question, correctAnswer, userAnswer string) (*oracle.Judgment, error) {
	f.mu.Lock()
	f.judgeCalls++
	err := f.judgeErr
	entered := f.judgeEntered
	release := f.judgeRelease
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}

	if userAnswer == correctAnswer {
		return &oracle.Judgment{IsCorrect: true, Feedback: "That is right.", Points: 10}, nil
	}
	return &oracle.Judgment{IsCorrect: false, Feedback: "Not quite.", Points: 0}, nil
}

type fakeSessionStore struct {
	mu      sync.Mutex
	answers []models.AnswerLog
	scores  map[uint]int

	recordErr error
	scoreErr  error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{scores: make(map[uint]int)}
}

func (f *fakeSessionStore) RecordAnswer(ctx context.Context, entry *models.AnswerLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.recordErr != nil {
		return f.recordErr
	}
	f.answers = append(f.answers, *entry)
	return nil
}

func (f *fakeSessionStore) AddScore(ctx context.Context, sessionID uint, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.scoreErr != nil {
		return f.scoreErr
	}
	f.scores[sessionID] += points
	return nil
}

func (f *fakeSessionStore) auditSum(sessionID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	sum := 0
	for _, entry := range f.answers {
		if entry.SessionID == sessionID {
			sum += entry.Points
		}
	}
	return sum
}

func (f *fakeSessionStore) auditCount(sessionID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, entry := range f.answers {
		if entry.SessionID == sessionID {
			count++
		}
	}
	return count
}

func newTestEngine(maxQuestions int) (*Engine, *fakeOracle, *fakeSessionStore, *MemoryCheckpointStore) {
	gateway := &fakeOracle{}
	store := newFakeSessionStore()
	checkpoints := NewMemoryCheckpointStore()
	return New(checkpoints, store, gateway, maxQuestions), gateway, store, checkpoints
}

// submitCorrect answers with the ground truth taken from the checkpoint.
func submitCorrect(t *testing.T, e *Engine, checkpoints *MemoryCheckpointStore, sessionID uint) *Snapshot {
	t.Helper()

	state, err := checkpoints.Load(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	snap, err := e.Submit(context.Background(), sessionID, state.CurrentAnswer)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return snap
}

func TestStartReturnsFirstQuestion(t *testing.T) {
	e, _, _, checkpoints := newTestEngine(3)

	snap, err := e.Start(context.Background(), 1, "Ana", "Science")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if snap.SessionID != 1 {
		t.Errorf("session id = %d, want 1", snap.SessionID)
	}
	if snap.Question == "" {
		t.Error("start returned no question")
	}
	if snap.Score != 0 || snap.GameOver {
		t.Errorf("fresh game has score=%d gameOver=%v", snap.Score, snap.GameOver)
	}

	state, err := checkpoints.Load(context.Background(), 1)
	if err != nil {
		t.Fatalf("no checkpoint after start: %v", err)
	}
	if state.Phase != PhaseAwaitingAnswer {
		t.Errorf("checkpoint phase = %q, want %q", state.Phase, PhaseAwaitingAnswer)
	}
}

func TestStartTwiceIsRejected(t *testing.T) {
	e, _, _, _ := newTestEngine(3)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second start err = %v, want ErrInvalidState", err)
	}
}

func TestStartPersistsNothingWhenGenerationFails(t *testing.T) {
	e, gateway, _, checkpoints := newTestEngine(3)
	gateway.genErr = oracle.ErrUnavailable

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); !errors.Is(err, oracle.ErrUnavailable) {
		t.Fatalf("start err = %v, want ErrUnavailable", err)
	}
	if _, err := checkpoints.Load(context.Background(), 1); !errors.Is(err, ErrSessionNotFound) {
		t.Error("failed start left a checkpoint behind")
	}

	// Retry after recovery works from scratch
	gateway.genErr = nil
	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatalf("retried start: %v", err)
	}
}

func TestSubmitProgressionAndGameOver(t *testing.T) {
	e, _, store, checkpoints := newTestEngine(3)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}

	wantScores := []int{10, 20, 30}
	wantOver := []bool{false, false, true}

	for i := 0; i < 3; i++ {
		snap := submitCorrect(t, e, checkpoints, 1)

		if snap.Score != wantScores[i] {
			t.Errorf("turn %d score = %d, want %d", i+1, snap.Score, wantScores[i])
		}
		if snap.GameOver != wantOver[i] {
			t.Errorf("turn %d gameOver = %v, want %v", i+1, snap.GameOver, wantOver[i])
		}
		if snap.QuestionCount != i+1 {
			t.Errorf("turn %d questionCount = %d, want %d", i+1, snap.QuestionCount, i+1)
		}
		if snap.GameOver && snap.Question != "" {
			t.Error("terminal snapshot carries a question")
		}
		if !snap.GameOver && snap.Question == "" {
			t.Errorf("turn %d returned no next question", i+1)
		}
		if snap.Score != store.auditSum(1) {
			t.Errorf("turn %d score %d differs from audit sum %d", i+1, snap.Score, store.auditSum(1))
		}
	}
}

func TestSingleQuestionGame(t *testing.T) {
	e, _, _, checkpoints := newTestEngine(1)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}

	snap := submitCorrect(t, e, checkpoints, 1)
	if !snap.GameOver || snap.Score != 10 {
		t.Errorf("single-question game ended with gameOver=%v score=%d", snap.GameOver, snap.Score)
	}
	if snap.Question != "" {
		t.Error("finished game still advertises a question")
	}
}

func TestWrongAnswersScoreZero(t *testing.T) {
	e, _, store, _ := newTestEngine(2)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}

	snap, err := e.Submit(context.Background(), 1, "definitely wrong")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Score != 0 {
		t.Errorf("wrong answer scored %d points", snap.Score)
	}
	if snap.Feedback == "" {
		t.Error("wrong answer returned no feedback")
	}
	if got := store.auditCount(1); got != 1 {
		t.Errorf("audit entries = %d, want 1", got)
	}
}

func TestSubmitOnFinishedSession(t *testing.T) {
	e, _, store, checkpoints := newTestEngine(1)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}
	submitCorrect(t, e, checkpoints, 1)

	before := store.auditCount(1)
	if _, err := e.Submit(context.Background(), 1, "too late"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("submit on finished session err = %v, want ErrInvalidState", err)
	}
	if store.auditCount(1) != before {
		t.Error("rejected submit still appended an audit entry")
	}
	if store.scores[1] != 10 {
		t.Errorf("rejected submit mutated the score: %d", store.scores[1])
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	e, _, _, _ := newTestEngine(3)

	if _, err := e.Submit(context.Background(), 404, "hello"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("submit unknown session err = %v, want ErrSessionNotFound", err)
	}
}

func TestJudgeFailurePersistsNothing(t *testing.T) {
	e, gateway, store, checkpoints := newTestEngine(3)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}
	before, _ := checkpoints.Load(context.Background(), 1)

	gateway.judgeErr = oracle.ErrUnavailable
	if _, err := e.Submit(context.Background(), 1, before.CurrentAnswer); !errors.Is(err, oracle.ErrUnavailable) {
		t.Fatalf("submit err = %v, want ErrUnavailable", err)
	}

	after, _ := checkpoints.Load(context.Background(), 1)
	if after.Phase != PhaseAwaitingAnswer || after.QuestionCount != 0 {
		t.Errorf("failed judge mutated the checkpoint: %+v", after)
	}
	if store.auditCount(1) != 0 {
		t.Error("failed judge recorded an audit entry")
	}

	// Retrying the same call succeeds with exactly one audit entry
	gateway.judgeErr = nil
	snap, err := e.Submit(context.Background(), 1, before.CurrentAnswer)
	if err != nil {
		t.Fatalf("retried submit: %v", err)
	}
	if snap.Score != 10 || store.auditCount(1) != 1 {
		t.Errorf("retry produced score=%d entries=%d, want 10 and 1", snap.Score, store.auditCount(1))
	}
}

func TestGenerationFailureIsResumableWithoutDoubleJudging(t *testing.T) {
	e, gateway, store, checkpoints := newTestEngine(2)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}
	state, _ := checkpoints.Load(context.Background(), 1)
	answer := state.CurrentAnswer

	// Judging succeeds, generating the follow-up question does not
	gateway.genErr = oracle.ErrUnavailable
	if _, err := e.Submit(context.Background(), 1, answer); !errors.Is(err, oracle.ErrUnavailable) {
		t.Fatalf("submit err = %v, want ErrUnavailable", err)
	}

	mid, _ := checkpoints.Load(context.Background(), 1)
	if mid.Phase != PhaseGenerating {
		t.Fatalf("checkpoint phase = %q, want %q", mid.Phase, PhaseGenerating)
	}
	if mid.QuestionCount != 1 || mid.Score != 10 {
		t.Errorf("judged progress lost: count=%d score=%d", mid.QuestionCount, mid.Score)
	}

	judged := gateway.judgeCalls

	// The retry resumes at the generation step: no second judgment, no
	// duplicate ledger row, no double-counted score.
	gateway.genErr = nil
	snap, err := e.Submit(context.Background(), 1, answer)
	if err != nil {
		t.Fatalf("retried submit: %v", err)
	}
	if gateway.judgeCalls != judged {
		t.Errorf("retry re-judged the answer (%d -> %d calls)", judged, gateway.judgeCalls)
	}
	if store.auditCount(1) != 1 {
		t.Errorf("audit entries = %d, want 1", store.auditCount(1))
	}
	if snap.Score != 10 || store.scores[1] != 10 {
		t.Errorf("score double-counted: snapshot=%d durable=%d", snap.Score, store.scores[1])
	}
	if snap.Question == "" || snap.GameOver {
		t.Errorf("retry did not produce the next question: %+v", snap)
	}
}

func TestConcurrentSubmitSameSessionRejected(t *testing.T) {
	e, gateway, _, checkpoints := newTestEngine(3)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}
	state, _ := checkpoints.Load(context.Background(), 1)

	gateway.judgeEntered = make(chan struct{})
	gateway.judgeRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background(), 1, state.CurrentAnswer)
		done <- err
	}()

	<-gateway.judgeEntered

	if _, err := e.Submit(context.Background(), 1, "overlapping"); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("overlapping submit err = %v, want ErrSessionBusy", err)
	}

	close(gateway.judgeRelease)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	e, _, store, checkpoints := newTestEngine(3)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Start(context.Background(), 2, "Ben", "History"); err != nil {
		t.Fatal(err)
	}

	submitCorrect(t, e, checkpoints, 1)
	snapTwo, err := e.Submit(context.Background(), 2, "wrong")
	if err != nil {
		t.Fatal(err)
	}

	if store.scores[1] != 10 || store.scores[2] != 0 {
		t.Errorf("cross-session score bleed: %v", store.scores)
	}
	if snapTwo.Score != 0 {
		t.Errorf("session 2 score = %d, want 0", snapTwo.Score)
	}
}

func TestGenerationHistoryAccumulates(t *testing.T) {
	e, _, _, checkpoints := newTestEngine(3)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}
	submitCorrect(t, e, checkpoints, 1)
	submitCorrect(t, e, checkpoints, 1)

	state, _ := checkpoints.Load(context.Background(), 1)
	if len(state.AskedQuestions) != 3 {
		t.Errorf("asked questions tracked = %d, want 3", len(state.AskedQuestions))
	}
	seen := make(map[string]bool)
	for _, q := range state.AskedQuestions {
		if seen[q] {
			t.Errorf("duplicate question recorded: %q", q)
		}
		seen[q] = true
	}
}

func TestStoreFailureLeavesCheckpointUntouched(t *testing.T) {
	e, _, store, checkpoints := newTestEngine(3)

	if _, err := e.Start(context.Background(), 1, "Ana", "Science"); err != nil {
		t.Fatal(err)
	}
	state, _ := checkpoints.Load(context.Background(), 1)

	store.recordErr = ErrStoreUnavailable
	if _, err := e.Submit(context.Background(), 1, state.CurrentAnswer); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("submit err = %v, want ErrStoreUnavailable", err)
	}

	after, _ := checkpoints.Load(context.Background(), 1)
	if after.QuestionCount != 0 || after.Phase != PhaseAwaitingAnswer {
		t.Errorf("store failure advanced the checkpoint: %+v", after)
	}
}
