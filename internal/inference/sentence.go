package inference

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/vancomm/minesweeper-ai/internal/mines"
)

type cellSet map[mines.Cell]struct{}

func newCellSet(cells ...mines.Cell) cellSet {
	s := make(cellSet, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

func (s cellSet) has(c mines.Cell) bool {
	_, ok := s[c]
	return ok
}

func (s cellSet) add(c mines.Cell) {
	s[c] = struct{}{}
}

// sorted returns the members in row-major order.
func (s cellSet) sorted() []mines.Cell {
	return slices.SortedFunc(maps.Keys(s), mines.CompareCells)
}

// Sentence is the statement "exactly Count of Cells are mines".
type Sentence struct {
	cells cellSet
	count int
}

func NewSentence(cells []mines.Cell, count int) *Sentence {
	return &Sentence{cells: newCellSet(cells...), count: count}
}

func (s *Sentence) Cells() []mines.Cell { return s.cells.sorted() }
func (s *Sentence) Count() int          { return s.count }
func (s *Sentence) Len() int            { return len(s.cells) }

func (s *Sentence) Contains(c mines.Cell) bool {
	return s.cells.has(c)
}

// Equal reports whether both sentences hold the same cells and count.
func (s *Sentence) Equal(other *Sentence) bool {
	if s.count != other.count || len(s.cells) != len(other.cells) {
		return false
	}
	return s.subsetOf(other)
}

func (s *Sentence) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, c := range s.Cells() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	b.WriteString("} = ")
	b.WriteString(strconv.Itoa(s.count))
	return b.String()
}

// consistent reports whether the count can be satisfied by the cells.
func (s *Sentence) consistent() bool {
	return 0 <= s.count && s.count <= len(s.cells)
}

// KnownMines returns every cell when all of them must be mines.
func (s *Sentence) KnownMines() []mines.Cell {
	if len(s.cells) > 0 && len(s.cells) == s.count {
		return s.Cells()
	}
	return nil
}

// KnownSafes returns every cell when none of them can be a mine.
func (s *Sentence) KnownSafes() []mines.Cell {
	if s.count == 0 {
		return s.Cells()
	}
	return nil
}

// MarkMine drops c, which accounts for one of the mines.
func (s *Sentence) MarkMine(c mines.Cell) bool {
	if !s.cells.has(c) {
		return false
	}
	delete(s.cells, c)
	s.count--
	return true
}

// MarkSafe drops c without changing the count.
func (s *Sentence) MarkSafe(c mines.Cell) bool {
	if !s.cells.has(c) {
		return false
	}
	delete(s.cells, c)
	return true
}

func (s *Sentence) subsetOf(other *Sentence) bool {
	if len(s.cells) > len(other.cells) {
		return false
	}
	for c := range s.cells {
		if !other.cells.has(c) {
			return false
		}
	}
	return true
}

// minus returns the sentence covering the cells of s that are not in
// other, holding the difference of their counts.
func (s *Sentence) minus(other *Sentence) *Sentence {
	diff := make(cellSet)
	for c := range s.cells {
		if !other.cells.has(c) {
			diff.add(c)
		}
	}
	return &Sentence{cells: diff, count: s.count - other.count}
}

func (s *Sentence) clone() *Sentence {
	return &Sentence{cells: maps.Clone(s.cells), count: s.count}
}
