package mines

import (
	"cmp"
	"fmt"
	"iter"
)

// Cell is a (row, column) position on a board.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

func (c Cell) InBounds(height, width int) bool {
	return 0 <= c.Row && c.Row < height && 0 <= c.Col && c.Col < width
}

// Around yields the in-bounds cells horizontally, vertically and
// diagonally adjacent to c, in row-major order. c itself is never yielded.
func (c Cell) Around(height, width int) iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		for row := c.Row - 1; row <= c.Row+1; row++ {
			for col := c.Col - 1; col <= c.Col+1; col++ {
				n := Cell{row, col}
				if n == c || !n.InBounds(height, width) {
					continue
				}
				if !yield(n) {
					return
				}
			}
		}
	}
}

// CompareCells orders cells row-major.
func CompareCells(a, b Cell) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Col, b.Col)
}
