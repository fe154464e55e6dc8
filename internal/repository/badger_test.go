package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-ai/internal/database"
	"github.com/vancomm/minesweeper-ai/internal/game"
)

func newBadger(t *testing.T) *Badger {
	t.Helper()
	db, err := database.OpenBadger("", nil)
	require.NoError(t, err)
	store, err := NewBadger(db)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	return store
}

func TestBadgerPlayers(t *testing.T) {
	ctx := context.Background()
	store := newBadger(t)

	alice, err := store.CreatePlayer(ctx, CreatePlayerParams{Username: "alice", PasswordHash: []byte("h1")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.PlayerID)

	_, err = store.CreatePlayer(ctx, CreatePlayerParams{Username: "alice", PasswordHash: []byte("h2")})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	fetched, err := store.FetchPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("h1"), fetched.PasswordHash)

	_, err = store.FetchPlayer(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerGameSessions(t *testing.T) {
	ctx := context.Background()
	store := newBadger(t)

	s, err := store.CreateGameSession(ctx, CreateGameSessionParams{
		Params:      game.Beginner,
		Propagation: "single",
		State:       []byte{1, 2, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.GameSessionID)
	assert.Equal(t, game.Beginner, s.Params())

	won, moves, ended := true, 5, time.Now()
	updated, err := store.UpdateGameSession(ctx, s.GameSessionID, UpdateGameSessionParams{
		Won:     &won,
		AIMoves: &moves,
		EndedAt: &ended,
		State:   []byte{4},
	})
	require.NoError(t, err)
	assert.True(t, updated.Won)
	assert.False(t, updated.Dead)
	assert.Equal(t, 5, updated.AIMoves)

	fetched, err := store.FetchGameSession(ctx, s.GameSessionID)
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, fetched.State)
	require.NotNil(t, fetched.EndedAt)

	_, err = store.FetchGameSession(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.UpdateGameSession(ctx, 42, UpdateGameSessionParams{Won: &won})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerHighscores(t *testing.T) {
	ctx := context.Background()
	store := newBadger(t)

	alice, err := store.CreatePlayer(ctx, CreatePlayerParams{Username: "alice"})
	require.NoError(t, err)

	finish := func(playerID *int64, params game.Params, won bool, aiMoves int, took time.Duration) {
		s, err := store.CreateGameSession(ctx, CreateGameSessionParams{PlayerID: playerID, Params: params})
		require.NoError(t, err)
		dead := !won
		ended := s.StartedAt.Add(took)
		_, err = store.UpdateGameSession(ctx, s.GameSessionID, UpdateGameSessionParams{
			Won: &won, Dead: &dead, AIMoves: &aiMoves, EndedAt: &ended,
		})
		require.NoError(t, err)
	}
	finish(&alice.PlayerID, game.Beginner, true, 0, 3*time.Second)
	finish(nil, game.Beginner, true, 4, time.Second)
	finish(&alice.PlayerID, game.Beginner, false, 0, time.Second)
	finish(&alice.PlayerID, game.Expert, true, 0, 2*time.Second)

	all, err := store.GetHighscores(ctx, HighscoreFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 1000.0, all[0].PlaytimeMs)
	assert.Nil(t, all[0].Username)
	assert.Equal(t, 2000.0, all[1].PlaytimeMs)

	beginner := game.Beginner
	name := "alice"
	scores, err := store.GetHighscores(ctx, HighscoreFilter{Params: &beginner, Username: &name})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "alice", *scores[0].Username)

	scores, err = store.GetHighscores(ctx, HighscoreFilter{Params: &beginner, Unassisted: true})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Zero(t, scores[0].AIMoves)

	scores, err = store.GetHighscores(ctx, HighscoreFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, scores, 1)
}
