package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vancomm/minesweeper-ai/internal/mines"
)

func TestSentenceEqual(t *testing.T) {
	a := NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 1)
	b := NewSentence([]mines.Cell{cell(0, 1), cell(0, 0)}, 1)
	c := NewSentence([]mines.Cell{cell(0, 1), cell(0, 0)}, 2)
	d := NewSentence([]mines.Cell{cell(0, 1), cell(1, 0)}, 1)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.True(t, NewSentence(nil, 0).Equal(NewSentence([]mines.Cell{}, 0)))
}

func TestSentenceString(t *testing.T) {
	s := NewSentence([]mines.Cell{cell(1, 0), cell(0, 2)}, 1)
	assert.Equal(t, "{(0,2), (1,0)} = 1", s.String())
	assert.Equal(t, "{} = 0", NewSentence(nil, 0).String())
}

func TestSentenceKnownCells(t *testing.T) {
	tests := []struct {
		name         string
		sentence     *Sentence
		mines, safes []mines.Cell
	}{
		{
			name:     "all mines",
			sentence: NewSentence([]mines.Cell{cell(0, 1), cell(0, 0)}, 2),
			mines:    []mines.Cell{cell(0, 0), cell(0, 1)},
		},
		{
			name:     "all safe",
			sentence: NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 0),
			safes:    []mines.Cell{cell(0, 0), cell(0, 1)},
		},
		{
			name:     "undecided",
			sentence: NewSentence([]mines.Cell{cell(0, 0), cell(0, 1)}, 1),
		},
		{
			name:     "empty",
			sentence: NewSentence(nil, 0),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.mines, test.sentence.KnownMines())
			if test.safes == nil {
				assert.Empty(t, test.sentence.KnownSafes())
			} else {
				assert.Equal(t, test.safes, test.sentence.KnownSafes())
			}
		})
	}
}

func TestSentenceMark(t *testing.T) {
	s := NewSentence([]mines.Cell{cell(0, 0), cell(0, 1), cell(0, 2)}, 2)

	assert.True(t, s.MarkMine(cell(0, 0)))
	assert.False(t, s.MarkMine(cell(0, 0)))
	assert.Equal(t, 1, s.Count())

	assert.True(t, s.MarkSafe(cell(0, 1)))
	assert.False(t, s.MarkSafe(cell(5, 5)))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, []mines.Cell{cell(0, 2)}, s.Cells())
}
