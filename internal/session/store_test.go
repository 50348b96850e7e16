package session

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapport/internal/progression"
)

var storeEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state := progression.NewConversationState("sess-1", storeEpoch)
	state.Flags["answered_fears"] = progression.BoolFlag(true)
	state.Flags["romantic_cue_count"] = progression.NumberFlag(2)
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, state.SessionID, loaded.SessionID)
	assert.Equal(t, progression.StageInitial, loaded.Stage)
	assert.True(t, loaded.Flags["answered_fears"].AsBool())
	assert.Equal(t, 2.0, loaded.Flags["romantic_cue_count"].AsNumber())
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state := progression.NewConversationState("sess-2", storeEpoch)
	require.NoError(t, store.Save(ctx, state))

	// Mutating the caller's copy after Save must not reach the store.
	state.Stage = progression.StageTerminal

	loaded, err := store.Load(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, progression.StageInitial, loaded.Stage)
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, store.Save(ctx, progression.NewConversationState(id, storeEpoch)))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].SessionID)
	assert.Equal(t, progression.StageInitial, list[0].Stage)
}

func TestMemoryStoreUpsert(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	state := progression.NewConversationState("sess-3", storeEpoch)
	require.NoError(t, store.Save(ctx, state))

	state.Stage = progression.StageBuilding
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx, "sess-3")
	require.NoError(t, err)
	assert.Equal(t, progression.StageBuilding, loaded.Stage)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1, "save is an upsert, not an append")
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, db)
	require.NoError(t, err)

	sessionID := "test-" + time.Now().Format("20060102150405")
	defer func() {
		_, _ = db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", sessionID)
	}()

	state := progression.NewConversationState(sessionID, storeEpoch)
	state.Flags["answered_fears"] = progression.BoolFlag(true)

	t.Run("SaveAndLoad", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, state.SessionID, loaded.SessionID)
		assert.True(t, loaded.Flags["answered_fears"].AsBool())
	})

	t.Run("Upsert", func(t *testing.T) {
		state.Stage = progression.StageBuilding
		require.NoError(t, store.Save(ctx, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, progression.StageBuilding, loaded.Stage)
	})

	t.Run("List", func(t *testing.T) {
		list, err := store.List(ctx)
		require.NoError(t, err)
		var found bool
		for _, sum := range list {
			if sum.SessionID == sessionID {
				found = true
				assert.Equal(t, progression.StageBuilding, sum.Stage)
			}
		}
		assert.True(t, found)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "definitely-missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
