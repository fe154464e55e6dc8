package main

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-ai/internal/game"
	"github.com/vancomm/minesweeper-ai/internal/inference"
)

func quiet() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSimulate(t *testing.T) {
	for _, p := range []inference.Propagation{inference.SinglePass, inference.FixedPoint} {
		s, err := simulate(context.Background(), simulation{
			Params:      game.Beginner,
			Propagation: p,
			Games:       40,
			Workers:     4,
			Seed:        7,
			Log:         quiet(),
		})
		require.NoError(t, err)
		assert.Equal(t, 40, s.Games)
		assert.Equal(t, s.Games, s.Won+s.Lost)
		assert.LessOrEqual(t, s.LostOnFirstRandomMove, s.Lost)
		assert.Positive(t, s.SafeMoves)
		assert.Contains(t, s.String(), "40 games")
	}
}

func TestSimulateIsRepeatable(t *testing.T) {
	sim := simulation{Params: game.Beginner, Games: 20, Workers: 3, Seed: 11, Log: quiet()}
	a, err := simulate(context.Background(), sim)
	require.NoError(t, err)
	b, err := simulate(context.Background(), sim)
	require.NoError(t, err)
	assert.Equal(t, a.Won, b.Won)
	assert.Equal(t, a.SafeMoves, b.SafeMoves)
	assert.Equal(t, a.RandomMoves, b.RandomMoves)
}

func TestSimulateRejectsBadParams(t *testing.T) {
	_, err := simulate(context.Background(), simulation{
		Params: game.Params{Height: 2, Width: 2, MineCount: 4},
		Games:  1,
	})
	assert.ErrorIs(t, err, game.ErrInvalidParams)
}

func TestSimulateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := simulate(ctx, simulation{Params: game.Expert, Games: 5, Seed: 1, Log: quiet()})
	assert.ErrorIs(t, err, context.Canceled)
}
