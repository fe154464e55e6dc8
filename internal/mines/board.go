package mines

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Board is a fixed-size grid of mine flags together with the set of cells
// the player has flagged. The mine layout never changes after NewBoard.
type Board struct {
	height, width int
	mineCount     int
	grid          []bool /* real mine points */
	flags         []bool /* player flags */
}

// NewBoard places mineCount distinct mines uniformly at random by
// rejection sampling.
func NewBoard(height, width, mineCount int, r *rand.Rand) (*Board, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d must be positive",
			ErrInvalidConfig, height, width)
	}
	if mineCount < 0 || mineCount > height*width {
		return nil, fmt.Errorf("%w: cannot place %d mines on %dx%d board",
			ErrInvalidConfig, mineCount, height, width)
	}

	b := &Board{
		height:    height,
		width:     width,
		mineCount: mineCount,
		grid:      make([]bool, height*width),
		flags:     make([]bool, height*width),
	}

	for placed := 0; placed < mineCount; {
		i := r.IntN(height)*width + r.IntN(width)
		if !b.grid[i] {
			b.grid[i] = true
			placed++
		}
	}

	return b, nil
}

func (b *Board) Height() int    { return b.height }
func (b *Board) Width() int     { return b.width }
func (b *Board) MineCount() int { return b.mineCount }

func (b *Board) index(c Cell) (int, error) {
	if !c.InBounds(b.height, b.width) {
		return 0, fmt.Errorf("%w: %s on %dx%d board",
			ErrOutOfBounds, c, b.height, b.width)
	}
	return c.Row*b.width + c.Col, nil
}

func (b *Board) IsMine(c Cell) (bool, error) {
	i, err := b.index(c)
	if err != nil {
		return false, err
	}
	return b.grid[i], nil
}

// NearbyMineCount returns the number of mines among the cells adjacent to
// c. Neighbours outside the grid are skipped and c itself is not counted.
func (b *Board) NearbyMineCount(c Cell) (int, error) {
	if _, err := b.index(c); err != nil {
		return 0, err
	}
	count := 0
	for n := range c.Around(b.height, b.width) {
		if b.grid[n.Row*b.width+n.Col] {
			count++
		}
	}
	return count, nil
}

func (b *Board) FlagMine(c Cell) error {
	i, err := b.index(c)
	if err != nil {
		return err
	}
	b.flags[i] = true
	return nil
}

func (b *Board) UnflagMine(c Cell) error {
	i, err := b.index(c)
	if err != nil {
		return err
	}
	b.flags[i] = false
	return nil
}

func (b *Board) Flagged(c Cell) bool {
	i, err := b.index(c)
	return err == nil && b.flags[i]
}

// Won reports whether the flagged cells are exactly the mines.
func (b *Board) Won() bool {
	for i := range b.grid {
		if b.grid[i] != b.flags[i] {
			return false
		}
	}
	return true
}

// Mines returns the mine cells in row-major order.
func (b *Board) Mines() []Cell {
	cells := make([]Cell, 0, b.mineCount)
	for i, mine := range b.grid {
		if mine {
			cells = append(cells, Cell{i / b.width, i % b.width})
		}
	}
	return cells
}

func (b *Board) String() string {
	var sb strings.Builder
	line := strings.Repeat("--", b.width) + "-\n"
	for row := range b.height {
		sb.WriteString(line)
		for col := range b.width {
			if b.grid[row*b.width+col] {
				sb.WriteString("|X")
			} else {
				sb.WriteString("| ")
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(line)
	return sb.String()
}

// BoardState is the serialisable form of a [Board].
type BoardState struct {
	Height, Width int
	Grid          []bool
	Flags         []bool
}

func (b *Board) State() BoardState {
	return BoardState{
		Height: b.height,
		Width:  b.width,
		Grid:   append([]bool(nil), b.grid...),
		Flags:  append([]bool(nil), b.flags...),
	}
}

func RestoreBoard(s BoardState) (*Board, error) {
	n := s.Height * s.Width
	if s.Height <= 0 || s.Width <= 0 || len(s.Grid) != n || len(s.Flags) != n {
		return nil, fmt.Errorf("%w: malformed board state", ErrInvalidConfig)
	}
	b := &Board{
		height: s.Height,
		width:  s.Width,
		grid:   append([]bool(nil), s.Grid...),
		flags:  append([]bool(nil), s.Flags...),
	}
	for _, mine := range b.grid {
		if mine {
			b.mineCount++
		}
	}
	return b, nil
}
