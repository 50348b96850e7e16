package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rapport/internal/progression"
)

// PostgresStore persists sessions in a Postgres table, one row per
// session with the full state as JSONB.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store and ensures the sessions table exists.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		stage      TEXT NOT NULL,
		state      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure sessions table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*progression.ConversationState, error) {
	query := `SELECT state FROM sessions WHERE id = $1`

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var state progression.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (s *PostgresStore) Save(ctx context.Context, state *progression.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", state.SessionID, err)
	}

	query := `
	INSERT INTO sessions (id, stage, state, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (id) DO UPDATE SET stage = $2, state = $3, updated_at = NOW()
	`

	log.Debug().
		Str("session", state.SessionID).
		Str("stage", state.Stage.String()).
		Msg("saving session")

	if _, err := s.db.ExecContext(ctx, query, state.SessionID, state.Stage.String(), raw); err != nil {
		return fmt.Errorf("failed to save session %s: %w", state.SessionID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	query := `SELECT id, stage, updated_at FROM sessions ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var stage string
		if err := rows.Scan(&sum.SessionID, &stage, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sum.Stage = progression.Stage(stage)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session rows: %w", err)
	}
	return out, nil
}
