package mines

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func fromLayout(t *testing.T, layout []string) *Board {
	t.Helper()
	s := BoardState{Height: len(layout), Width: len(layout[0])}
	for _, row := range layout {
		for _, ch := range row {
			s.Grid = append(s.Grid, ch == '*')
			s.Flags = append(s.Flags, false)
		}
	}
	b, err := RestoreBoard(s)
	require.NoError(t, err)
	return b
}

func TestNewBoardPlacesExactMineCount(t *testing.T) {
	tests := []struct {
		name                     string
		height, width, mineCount int
	}{
		{"empty", 8, 8, 0},
		{"beginner", 8, 8, 8},
		{"dense", 4, 5, 19},
		{"full", 3, 3, 9},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b, err := NewBoard(test.height, test.width, test.mineCount, newRand())
			require.NoError(t, err)
			assert.Len(t, b.Mines(), test.mineCount)
			assert.Equal(t, test.mineCount, b.MineCount())
		})
	}
}

func TestNewBoardInvalidConfig(t *testing.T) {
	for _, args := range [][3]int{{3, 3, 10}, {0, 3, 0}, {3, -1, 0}, {3, 3, -1}} {
		_, err := NewBoard(args[0], args[1], args[2], newRand())
		assert.ErrorIs(t, err, ErrInvalidConfig, "%v", args)
	}
}

func TestIsMineOutOfBounds(t *testing.T) {
	b := fromLayout(t, []string{"*.", ".."})

	mine, err := b.IsMine(Cell{0, 0})
	require.NoError(t, err)
	assert.True(t, mine)

	for _, c := range []Cell{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		_, err := b.IsMine(c)
		assert.ErrorIs(t, err, ErrOutOfBounds, "%v", c)
	}
}

func TestNearbyMineCount(t *testing.T) {
	b := fromLayout(t, []string{
		"**.",
		"*..",
		"..*",
	})

	tests := []struct {
		cell Cell
		want int
	}{
		{Cell{0, 0}, 2}, // itself is a mine, not counted
		{Cell{0, 2}, 1},
		{Cell{1, 1}, 4},
		{Cell{2, 2}, 0},
		{Cell{2, 0}, 1},
		{Cell{1, 2}, 2},
	}
	for _, test := range tests {
		got, err := b.NearbyMineCount(test.cell)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, "%v", test.cell)
	}

	_, err := b.NearbyMineCount(Cell{3, 3})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestNearbyMineCountNeverCountsOutsideOrSelf(t *testing.T) {
	r := newRand()
	for range 20 {
		b, err := NewBoard(6, 7, 15, r)
		require.NoError(t, err)
		for row := range 6 {
			for col := range 7 {
				c := Cell{row, col}
				want := 0
				for dr := -1; dr <= 1; dr++ {
					for dc := -1; dc <= 1; dc++ {
						n := Cell{row + dr, col + dc}
						if n == c || !n.InBounds(6, 7) {
							continue
						}
						if mine, _ := b.IsMine(n); mine {
							want++
						}
					}
				}
				got, err := b.NearbyMineCount(c)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}
	}
}

func TestWon(t *testing.T) {
	b := fromLayout(t, []string{"*.", ".*"})
	assert.False(t, b.Won())

	require.NoError(t, b.FlagMine(Cell{0, 0}))
	assert.False(t, b.Won())

	require.NoError(t, b.FlagMine(Cell{1, 0}))
	require.NoError(t, b.FlagMine(Cell{1, 1}))
	assert.False(t, b.Won(), "wrong flag must prevent a win")

	require.NoError(t, b.UnflagMine(Cell{1, 0}))
	assert.True(t, b.Won())

	assert.ErrorIs(t, b.FlagMine(Cell{5, 5}), ErrOutOfBounds)
}

func TestCellAround(t *testing.T) {
	var corner []Cell
	for n := range (Cell{0, 0}).Around(3, 3) {
		corner = append(corner, n)
	}
	assert.Equal(t, []Cell{{0, 1}, {1, 0}, {1, 1}}, corner)

	var center []Cell
	for n := range (Cell{1, 1}).Around(3, 3) {
		center = append(center, n)
	}
	assert.Len(t, center, 8)
	assert.NotContains(t, center, Cell{1, 1})
}

func TestBoardString(t *testing.T) {
	b := fromLayout(t, []string{"*.", ".."})
	assert.Equal(t, "-----\n|X| |\n-----\n| | |\n-----\n", b.String())
}

func TestRestoreBoardRejectsMalformedState(t *testing.T) {
	_, err := RestoreBoard(BoardState{Height: 2, Width: 2, Grid: make([]bool, 3), Flags: make([]bool, 4)})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
