package inference

import (
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/minesweeper-ai/internal/mines"
)

type SentenceState struct {
	Cells []mines.Cell
	Count int
}

// State is the serialisable form of an [Agent]. The random source and
// logger are not part of it.
type State struct {
	Height, Width int
	Propagation   Propagation
	MovesMade     []mines.Cell
	Safes         []mines.Cell
	Mines         []mines.Cell
	Knowledge     []SentenceState
}

func (a *Agent) State() State {
	s := State{
		Height:      a.height,
		Width:       a.width,
		Propagation: a.propagation,
		MovesMade:   a.MovesMade(),
		Safes:       a.Safes(),
		Mines:       a.Mines(),
		Knowledge:   make([]SentenceState, 0, len(a.knowledge)),
	}
	for _, sentence := range a.knowledge {
		s.Knowledge = append(s.Knowledge, SentenceState{
			Cells: sentence.Cells(),
			Count: sentence.count,
		})
	}
	return s
}

func Restore(s State, rnd *rand.Rand, log logrus.FieldLogger) (*Agent, error) {
	a := New(s.Height, s.Width, rnd, Options{Propagation: s.Propagation, Logger: log})
	for _, c := range s.MovesMade {
		a.movesMade.add(c)
	}
	for _, c := range s.Safes {
		a.safes.add(c)
	}
	for _, c := range s.Mines {
		if a.safes.has(c) {
			return nil, fmt.Errorf("restore agent: %w", &InconsistentKnowledgeError{
				Reason: fmt.Sprintf("%s is both safe and a mine", c),
			})
		}
		a.mines.add(c)
	}
	for _, sentence := range s.Knowledge {
		a.knowledge = append(a.knowledge, NewSentence(sentence.Cells, sentence.Count))
	}
	return a, nil
}
