package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckpointStore holds the serialized TurnState per session. Last write wins;
// the engine serializes writers per session so that is safe.
type CheckpointStore interface {
	Save(ctx context.Context, state *TurnState) error
	Load(ctx context.Context, sessionID uint) (*TurnState, error)
}

type RedisCheckpointStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCheckpointStore(client *redis.Client, ttl time.Duration) *RedisCheckpointStore {
	return &RedisCheckpointStore{redis: client, ttl: ttl}
}

func checkpointKey(sessionID uint) string {
	return "trivia:session:" + strconv.FormatUint(uint64(sessionID), 10)
}

func (s *RedisCheckpointStore) Save(ctx context.Context, state *TurnState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if err := s.redis.Set(ctx, checkpointKey(state.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisCheckpointStore) Load(ctx context.Context, sessionID uint) (*TurnState, error) {
	data, err := s.redis.Get(ctx, checkpointKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var state TurnState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &state, nil
}

// MemoryCheckpointStore keeps checkpoints in process. Used by the console
// driver and in tests.
type MemoryCheckpointStore struct {
	mu     sync.RWMutex
	states map[uint][]byte
}

func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{states: make(map[uint][]byte)}
}

func (s *MemoryCheckpointStore) Save(ctx context.Context, state *TurnState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	s.states[state.SessionID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryCheckpointStore) Load(ctx context.Context, sessionID uint) (*TurnState, error) {
	s.mu.RLock()
	data, ok := s.states[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	var state TurnState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &state, nil
}
