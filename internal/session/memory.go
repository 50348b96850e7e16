package session

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rapport/internal/progression"
)

// MemoryStore keeps sessions in process memory. Used when no database is
// configured and by tests. State is copied through JSON on the way in and
// out so callers never share mutable state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	raw       []byte
	stage     progression.Stage
	updatedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*progression.ConversationState, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var state progression.ConversationState
	if err := json.Unmarshal(entry.raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *MemoryStore) Save(ctx context.Context, state *progression.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[state.SessionID] = memoryEntry{
		raw:       raw,
		stage:     state.Stage,
		updatedAt: time.Now(),
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.sessions))
	for id, entry := range s.sessions {
		out = append(out, Summary{SessionID: id, Stage: entry.stage, UpdatedAt: entry.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}
