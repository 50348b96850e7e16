// Package session persists conversation state by session identifier. The
// progression core is persistence-agnostic; this package is the boundary
// the API layer goes through.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/rapport/internal/progression"
)

// ErrNotFound is returned when no session exists for an identifier.
var ErrNotFound = errors.New("session not found")

// Summary is the listing row for dashboards.
type Summary struct {
	SessionID string            `json:"session_id"`
	Stage     progression.Stage `json:"stage"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store loads and saves conversation state. Save is an upsert keyed by
// the state's session id.
type Store interface {
	Load(ctx context.Context, sessionID string) (*progression.ConversationState, error)
	Save(ctx context.Context, state *progression.ConversationState) error
	List(ctx context.Context) ([]Summary, error)
}
