package inference

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/minesweeper-ai/internal/mines"
)

func cell(row, col int) mines.Cell {
	return mines.Cell{Row: row, Col: col}
}

func newAgent(height, width int, p Propagation) *Agent {
	return New(height, width, rand.New(rand.NewPCG(1, 2)), Options{Propagation: p})
}

func requireNoCellInKnowledge(t *testing.T, a *Agent, c mines.Cell) {
	t.Helper()
	for _, s := range a.knowledge {
		require.False(t, s.Contains(c), "%s still in %s", c, s)
	}
}

func TestMarkSafe(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	a.knowledge = []*Sentence{
		NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 1),
		NewSentence([]mines.Cell{cell(0, 1), cell(1, 1)}, 1),
		NewSentence([]mines.Cell{cell(2, 2)}, 0),
	}

	require.NoError(t, a.MarkSafe(cell(0, 1)))
	require.NoError(t, a.MarkSafe(cell(0, 1)))

	requireNoCellInKnowledge(t, a, cell(0, 1))
	assert.True(t, a.KnownSafe(cell(0, 1)))
	assert.Equal(t, 1, a.knowledge[0].Count())
	assert.Equal(t, 1, a.knowledge[1].Count())
	assert.Equal(t, []mines.Cell{cell(0, 0)}, a.knowledge[0].Cells())
}

func TestMarkMine(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	a.knowledge = []*Sentence{
		NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 1),
		NewSentence([]mines.Cell{cell(0, 1), cell(1, 1), cell(1, 2)}, 2),
		NewSentence([]mines.Cell{cell(2, 2)}, 1),
	}

	require.NoError(t, a.MarkMine(cell(0, 1)))
	requireNoCellInKnowledge(t, a, cell(0, 1))
	assert.True(t, a.KnownMine(cell(0, 1)))
	assert.Equal(t, 0, a.knowledge[0].Count())
	assert.Equal(t, 1, a.knowledge[1].Count())
	assert.Equal(t, 1, a.knowledge[2].Count(), "untouched sentence keeps its count")

	require.NoError(t, a.MarkMine(cell(0, 1)))
	assert.Equal(t, 0, a.knowledge[0].Count(), "second mark is a no-op")
	assert.Equal(t, 1, a.knowledge[1].Count())
	assert.Equal(t, []mines.Cell{cell(0, 1)}, a.Mines())
}

func TestMarkConflictingCell(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	require.NoError(t, a.MarkSafe(cell(1, 1)))

	var ike *InconsistentKnowledgeError
	assert.ErrorAs(t, a.MarkMine(cell(1, 1)), &ike)
	assert.Empty(t, a.Mines())

	require.NoError(t, a.MarkMine(cell(0, 0)))
	assert.ErrorAs(t, a.MarkSafe(cell(0, 0)), &ike)
}

func TestNeighbors(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	require.NoError(t, a.MarkSafe(cell(0, 1)))
	require.NoError(t, a.MarkMine(cell(1, 0)))

	assert.Equal(t,
		[]mines.Cell{cell(1, 0), cell(1, 1)},
		a.Neighbors(cell(0, 0)),
		"known safes are dropped, known mines are kept",
	)
	assert.Len(t, a.Neighbors(cell(2, 2)), 3)
}

func TestSubsetInferenceSafe(t *testing.T) {
	a := newAgent(2, 2, SinglePass)
	a.knowledge = []*Sentence{
		NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 1),
		NewSentence([]mines.Cell{cell(0, 0)}, 1),
	}

	changed, err := a.inferSubsets()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, a.KnownSafe(cell(0, 1)))
	assert.False(t, a.KnownMine(cell(0, 0)), "subset pass only concludes on the difference")
}

func TestSubsetInferenceMine(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	a.knowledge = []*Sentence{
		NewSentence([]mines.Cell{cell(0, 0), cell(0, 1), cell(0, 2)}, 2),
		NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 1),
	}

	changed, err := a.inferSubsets()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, a.KnownMine(cell(0, 2)))
	assert.Equal(t, 1, a.knowledge[0].Count())
}

func TestSubsetInferenceDerivesSentence(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	a.knowledge = []*Sentence{
		NewSentence([]mines.Cell{cell(0, 0), cell(0, 1), cell(0, 2), cell(1, 2)}, 2),
		NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 1),
	}

	changed, err := a.inferSubsets()
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, a.knowledge, 3)
	assert.True(t, a.knowledge[2].Equal(NewSentence([]mines.Cell{cell(0, 2), cell(1, 2)}, 1)))

	changed, err = a.inferSubsets()
	require.NoError(t, err)
	assert.False(t, changed, "derived sentences are not added twice")
	assert.Len(t, a.knowledge, 3)
}

func TestSubsetInferenceSkipsUnrelatedAndEqualSizes(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	a.knowledge = []*Sentence{
		NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 1),
		NewSentence([]mines.Cell{cell(1, 0), cell(1, 1)}, 1),
		NewSentence([]mines.Cell{cell(2, 0), cell(2, 1), cell(2, 2)}, 1),
		NewSentence(nil, 0),
	}

	changed, err := a.inferSubsets()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, a.knowledge, 4)
}

func TestSubsetInferenceInconsistent(t *testing.T) {
	a := newAgent(2, 2, SinglePass)
	a.knowledge = []*Sentence{
		NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 0),
		NewSentence([]mines.Cell{cell(0, 0)}, 1),
	}

	_, err := a.inferSubsets()
	var ike *InconsistentKnowledgeError
	require.ErrorAs(t, err, &ike)
	assert.Equal(t, -1, ike.Sentence.Count())
	assert.Empty(t, a.Safes())
	assert.Empty(t, a.Mines())
}

func TestUpdateZeroMarksAllNeighborsSafe(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	require.NoError(t, a.Update(cell(1, 1), 0))

	want := []mines.Cell{
		cell(0, 0), cell(0, 1), cell(0, 2),
		cell(1, 0), cell(1, 1), cell(1, 2),
		cell(2, 0), cell(2, 1), cell(2, 2),
	}
	assert.Equal(t, want, a.Safes())
	assert.Equal(t, []mines.Cell{cell(1, 1)}, a.MovesMade())
	assert.Empty(t, a.Knowledge())
}

func TestUpdateSubtractsKnownMines(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	require.NoError(t, a.MarkMine(cell(0, 0)))
	require.NoError(t, a.Update(cell(1, 1), 1))

	assert.Len(t, a.Safes(), 8)
	assert.Equal(t, []mines.Cell{cell(0, 0)}, a.Mines())
}

func TestUpdateAllNeighborsMines(t *testing.T) {
	a := newAgent(2, 2, SinglePass)
	require.NoError(t, a.Update(cell(0, 0), 3))
	assert.Equal(t, []mines.Cell{cell(0, 1), cell(1, 0), cell(1, 1)}, a.Mines())
	assert.Equal(t, []mines.Cell{cell(0, 0)}, a.Safes())
}

func TestUpdateCornerInference(t *testing.T) {
	// 1x3 strip: revealing (0,0) with hint 1 pins the mine to (0,1);
	// revealing (0,2) with hint 1 says the same.
	a := newAgent(1, 3, SinglePass)
	require.NoError(t, a.Update(cell(0, 0), 1))
	assert.Equal(t, []mines.Cell{cell(0, 1)}, a.Mines())
	assert.Equal(t, []mines.Cell{cell(0, 0)}, a.Safes())
}

func TestUpdateRejectsBadInput(t *testing.T) {
	a := newAgent(3, 3, SinglePass)

	assert.ErrorIs(t, a.Update(cell(3, 0), 0), mines.ErrOutOfBounds)
	assert.ErrorIs(t, a.Update(cell(0, 0), -1), ErrInvalidHint)
	assert.ErrorIs(t, a.Update(cell(0, 0), 4), ErrInvalidHint)
	assert.Empty(t, a.MovesMade())
	assert.Empty(t, a.Safes())

	require.NoError(t, a.MarkMine(cell(0, 0)))
	var ike *InconsistentKnowledgeError
	assert.ErrorAs(t, a.Update(cell(0, 0), 1), &ike)
}

func TestUpdateContradictingHints(t *testing.T) {
	a := newAgent(1, 2, SinglePass)
	require.NoError(t, a.Update(cell(0, 0), 0))
	require.True(t, a.KnownSafe(cell(0, 1)))

	// (0,1) has only (0,0) as neighbour, which is safe.
	err := a.Update(cell(0, 1), 1)
	var ike *InconsistentKnowledgeError
	assert.True(t, errors.As(err, &ike), "got %v", err)
}

func TestUpdateDuplicateSentenceNotAdded(t *testing.T) {
	a := newAgent(3, 5, SinglePass)
	require.NoError(t, a.Update(cell(0, 0), 1))
	n := len(a.knowledge)
	require.NoError(t, a.Update(cell(0, 0), 1))
	assert.Len(t, a.knowledge, n)
}

func TestPropagationDepth(t *testing.T) {
	setup := func(p Propagation) *Agent {
		a := newAgent(3, 3, p)
		a.knowledge = []*Sentence{
			NewSentence([]mines.Cell{cell(0, 0), cell(0, 1), cell(0, 2), cell(1, 2)}, 1),
			NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 1),
		}
		return a
	}

	single := setup(SinglePass)
	require.NoError(t, single.propagate())
	assert.Empty(t, single.Safes(), "single pass leaves the derived sentence unresolved")

	fixed := setup(FixedPoint)
	require.NoError(t, fixed.propagate())
	assert.Equal(t, []mines.Cell{cell(0, 2), cell(1, 2)}, fixed.Safes())
}

func TestSafeMove(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	_, err := a.SafeMove()
	assert.ErrorIs(t, err, ErrNoMoveAvailable)

	require.NoError(t, a.Update(cell(1, 1), 0))
	seen := map[mines.Cell]bool{cell(1, 1): true}
	for range 8 {
		c, err := a.SafeMove()
		require.NoError(t, err)
		assert.False(t, seen[c], "%s returned twice", c)
		assert.True(t, a.KnownSafe(c))
		seen[c] = true
	}
	_, err = a.SafeMove()
	assert.ErrorIs(t, err, ErrNoMoveAvailable)
}

func TestRandomMove(t *testing.T) {
	a := newAgent(3, 3, SinglePass)
	require.NoError(t, a.MarkMine(cell(0, 0)))
	require.NoError(t, a.MarkMine(cell(2, 2)))
	require.NoError(t, a.Update(cell(1, 1), 2))

	seen := map[mines.Cell]bool{}
	for range 6 {
		c, err := a.RandomMove()
		require.NoError(t, err)
		assert.NotEqual(t, cell(1, 1), c)
		assert.False(t, a.KnownMine(c))
		assert.False(t, seen[c])
		seen[c] = true
	}
	_, err := a.RandomMove()
	assert.ErrorIs(t, err, ErrNoMoveAvailable)
}

// play drives an agent against a real board the way a player would and
// checks that every deduction is sound and safes never meet mines.
func play(t *testing.T, board *mines.Board, a *Agent) {
	t.Helper()
	for {
		move, err := a.SafeMove()
		if errors.Is(err, ErrNoMoveAvailable) {
			move, err = a.RandomMove()
		}
		if errors.Is(err, ErrNoMoveAvailable) {
			return
		}
		require.NoError(t, err)

		mine, err := board.IsMine(move)
		require.NoError(t, err)
		if mine {
			require.False(t, a.KnownSafe(move), "agent stepped on a deduced safe %s", move)
			return
		}

		hint, err := board.NearbyMineCount(move)
		require.NoError(t, err)
		require.NoError(t, a.Update(move, hint))

		for _, c := range a.Safes() {
			require.False(t, a.KnownMine(c), "%s both safe and mine", c)
			isMine, _ := board.IsMine(c)
			require.False(t, isMine, "%s deduced safe but is a mine", c)
		}
		for _, c := range a.Mines() {
			isMine, _ := board.IsMine(c)
			require.True(t, isMine, "%s deduced mine but is safe", c)
		}
		for _, s := range a.knowledge {
			for _, c := range s.Cells() {
				require.False(t, a.KnownSafe(c) || a.KnownMine(c), "%s known but still in %s", c, s)
			}
		}
	}
}

func TestAgentSoundness(t *testing.T) {
	for _, p := range []Propagation{SinglePass, FixedPoint} {
		t.Run(p.String(), func(t *testing.T) {
			r := rand.New(rand.NewPCG(7, 11))
			for range 50 {
				board, err := mines.NewBoard(8, 8, 8, r)
				require.NoError(t, err)
				play(t, board, New(8, 8, r, Options{Propagation: p}))
			}
		})
	}
}

func TestParsePropagation(t *testing.T) {
	p, err := ParsePropagation("fixed-point")
	require.NoError(t, err)
	assert.Equal(t, FixedPoint, p)

	p, err = ParsePropagation("")
	require.NoError(t, err)
	assert.Equal(t, SinglePass, p)

	_, err = ParsePropagation("twice")
	assert.Error(t, err)
}

func TestStateRoundTrip(t *testing.T) {
	a := newAgent(4, 4, FixedPoint)
	require.NoError(t, a.MarkMine(cell(3, 3)))
	require.NoError(t, a.Update(cell(0, 0), 1))

	restored, err := Restore(a.State(), rand.New(rand.NewPCG(1, 2)), nil)
	require.NoError(t, err)
	assert.Equal(t, a.Safes(), restored.Safes())
	assert.Equal(t, a.Mines(), restored.Mines())
	assert.Equal(t, a.MovesMade(), restored.MovesMade())
	assert.Equal(t, FixedPoint, restored.Propagation())
	require.Len(t, restored.knowledge, len(a.knowledge))
	for i := range a.knowledge {
		assert.True(t, a.knowledge[i].Equal(restored.knowledge[i]))
	}

	bad := a.State()
	bad.Mines = append(bad.Mines, cell(0, 0))
	_, err = Restore(bad, nil, nil)
	assert.Error(t, err)
}
