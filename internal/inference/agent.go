package inference

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/minesweeper-ai/internal/mines"
)

// Propagation selects how far Update chases consequences of a new hint.
type Propagation int

const (
	// SinglePass runs the trivial-sentence pass and the subset pass once
	// per Update. Conclusions left over are picked up by later calls.
	SinglePass Propagation = iota
	// FixedPoint repeats both passes until nothing new is learned.
	FixedPoint
)

func (p Propagation) String() string {
	switch p {
	case SinglePass:
		return "single"
	case FixedPoint:
		return "fixed"
	default:
		return fmt.Sprintf("Propagation(%d)", int(p))
	}
}

func ParsePropagation(s string) (Propagation, error) {
	switch strings.ToLower(s) {
	case "single", "single-pass", "":
		return SinglePass, nil
	case "fixed", "fixed-point":
		return FixedPoint, nil
	default:
		return 0, fmt.Errorf("unknown propagation %q", s)
	}
}

type Options struct {
	Propagation Propagation
	Logger      logrus.FieldLogger
}

// Agent keeps a knowledge base of sentences about one board and deduces
// which cells are safe and which are mines. It is not safe for concurrent
// use.
type Agent struct {
	height, width int

	movesMade cellSet
	safes     cellSet
	mines     cellSet
	knowledge []*Sentence

	propagation Propagation
	rnd         *rand.Rand
	log         logrus.FieldLogger
}

func New(height, width int, rnd *rand.Rand, opts Options) *Agent {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Agent{
		height:      height,
		width:       width,
		movesMade:   make(cellSet),
		safes:       make(cellSet),
		mines:       make(cellSet),
		propagation: opts.Propagation,
		rnd:         rnd,
		log:         log,
	}
}

func (a *Agent) Height() int { return a.height }
func (a *Agent) Width() int  { return a.width }

func (a *Agent) Propagation() Propagation { return a.propagation }

// MarkMine records c as a mine and removes it from every sentence, each
// of which loses one mine from its count.
func (a *Agent) MarkMine(c mines.Cell) error {
	if a.safes.has(c) {
		return &InconsistentKnowledgeError{
			Reason: fmt.Sprintf("%s deduced as mine but known to be safe", c),
		}
	}
	a.mines.add(c)
	for _, s := range a.knowledge {
		s.MarkMine(c)
	}
	return nil
}

// MarkSafe records c as safe and removes it from every sentence.
func (a *Agent) MarkSafe(c mines.Cell) error {
	if a.mines.has(c) {
		return &InconsistentKnowledgeError{
			Reason: fmt.Sprintf("%s deduced as safe but known to be a mine", c),
		}
	}
	a.safes.add(c)
	for _, s := range a.knowledge {
		s.MarkSafe(c)
	}
	return nil
}

// Neighbors returns the in-bounds cells around c that are not known to be
// safe. Known mines are kept.
func (a *Agent) Neighbors(c mines.Cell) []mines.Cell {
	cells := make([]mines.Cell, 0, 8)
	for n := range c.Around(a.height, a.width) {
		if !a.safes.has(n) {
			cells = append(cells, n)
		}
	}
	return cells
}

// Update folds the hint revealed at cell into the knowledge base and
// marks every safe and mine cell that follows from it.
func (a *Agent) Update(cell mines.Cell, hint int) error {
	if !cell.InBounds(a.height, a.width) {
		return fmt.Errorf("%w: %s on %dx%d board",
			mines.ErrOutOfBounds, cell, a.height, a.width)
	}
	around := 0
	for range cell.Around(a.height, a.width) {
		around++
	}
	if hint < 0 || hint > around {
		return fmt.Errorf("%w: %d mines around %s", ErrInvalidHint, hint, cell)
	}
	if a.mines.has(cell) {
		return &InconsistentKnowledgeError{
			Reason: fmt.Sprintf("%s revealed but known to be a mine", cell),
		}
	}

	a.movesMade.add(cell)
	if err := a.MarkSafe(cell); err != nil {
		return err
	}

	unresolved := make([]mines.Cell, 0, 8)
	knownMines := 0
	for _, n := range a.Neighbors(cell) {
		if a.mines.has(n) {
			knownMines++
			continue
		}
		unresolved = append(unresolved, n)
	}
	if _, err := a.add(NewSentence(unresolved, hint-knownMines)); err != nil {
		return err
	}

	if err := a.propagate(); err != nil {
		return err
	}

	a.log.WithFields(logrus.Fields{
		"cell":      cell,
		"hint":      hint,
		"safes":     len(a.safes),
		"mines":     len(a.mines),
		"sentences": len(a.knowledge),
	}).Debug("knowledge updated")

	return nil
}

func (a *Agent) propagate() error {
	for {
		marked, err := a.markTrivial()
		if err != nil {
			return err
		}
		inferred, err := a.inferSubsets()
		if err != nil {
			return err
		}
		if a.propagation == SinglePass || !(marked || inferred) {
			return nil
		}
	}
}

// add drops known cells from s and appends it unless an equal sentence
// is already held.
func (a *Agent) add(s *Sentence) (bool, error) {
	for _, c := range s.Cells() {
		if a.safes.has(c) {
			s.MarkSafe(c)
		} else if a.mines.has(c) {
			s.MarkMine(c)
		}
	}
	if !s.consistent() {
		return false, &InconsistentKnowledgeError{
			Reason: "mine count does not fit its cells", Sentence: s,
		}
	}
	for _, known := range a.knowledge {
		if known.Equal(s) {
			return false, nil
		}
	}
	a.knowledge = append(a.knowledge, s)
	return true, nil
}

// markTrivial marks the cells of every sentence whose count is zero or
// equal to its size. Marking mutates later sentences in place, which may
// make them trivial within the same pass.
func (a *Agent) markTrivial() (bool, error) {
	marked := false
	for _, s := range a.knowledge {
		if !s.consistent() {
			return marked, &InconsistentKnowledgeError{
				Reason: "mine count does not fit its cells", Sentence: s.clone(),
			}
		}
		for _, c := range s.KnownMines() {
			if !a.mines.has(c) {
				marked = true
				a.log.WithField("cell", c).Debug("deduced mine")
			}
			if err := a.MarkMine(c); err != nil {
				return marked, err
			}
		}
		for _, c := range s.KnownSafes() {
			if !a.safes.has(c) {
				marked = true
				a.log.WithField("cell", c).Debug("deduced safe")
			}
			if err := a.MarkSafe(c); err != nil {
				return marked, err
			}
		}
	}
	return marked, nil
}

// inferSubsets compares every pair of sentences where one cell set
// strictly contains the other. Conclusions are drawn from a frozen copy of
// the knowledge base first and only then applied.
func (a *Agent) inferSubsets() (bool, error) {
	snapshot := make([]*Sentence, 0, len(a.knowledge))
	for _, s := range a.knowledge {
		if s.Len() > 0 {
			snapshot = append(snapshot, s.clone())
		}
	}

	var (
		safeCells, mineCells []mines.Cell
		derived              []*Sentence
	)
	for i, s1 := range snapshot {
		for _, s2 := range snapshot[i+1:] {
			larger, smaller := s1, s2
			switch {
			case s1.Len() == s2.Len():
				continue
			case s1.Len() < s2.Len():
				larger, smaller = s2, s1
			}
			if !smaller.subsetOf(larger) {
				continue
			}

			diff := larger.minus(smaller)
			if !diff.consistent() {
				return false, &InconsistentKnowledgeError{
					Reason:   fmt.Sprintf("%s contains %s", larger, smaller),
					Sentence: diff,
				}
			}
			if diff.Len() > 1 {
				derived = append(derived, diff)
				continue
			}
			c := diff.Cells()[0]
			if diff.count == 0 {
				safeCells = append(safeCells, c)
			} else {
				mineCells = append(mineCells, c)
			}
		}
	}

	changed := false
	for _, c := range safeCells {
		if !a.safes.has(c) {
			changed = true
			a.log.WithField("cell", c).Debug("inferred safe")
		}
		if err := a.MarkSafe(c); err != nil {
			return changed, err
		}
	}
	for _, c := range mineCells {
		if !a.mines.has(c) {
			changed = true
			a.log.WithField("cell", c).Debug("inferred mine")
		}
		if err := a.MarkMine(c); err != nil {
			return changed, err
		}
	}
	for _, s := range derived {
		added, err := a.add(s)
		if err != nil {
			return changed, err
		}
		changed = changed || added
	}
	return changed, nil
}

// SafeMove returns a cell known to be safe that has not been played yet,
// and records it as played.
func (a *Agent) SafeMove() (mines.Cell, error) {
	for _, c := range a.safes.sorted() {
		if !a.movesMade.has(c) {
			a.movesMade.add(c)
			return c, nil
		}
	}
	return mines.Cell{}, ErrNoMoveAvailable
}

// RandomMove picks uniformly among cells neither played nor known to be
// mines, and records it as played.
func (a *Agent) RandomMove() (mines.Cell, error) {
	candidates := make([]mines.Cell, 0, a.height*a.width)
	for row := range a.height {
		for col := range a.width {
			c := mines.Cell{Row: row, Col: col}
			if !a.movesMade.has(c) && !a.mines.has(c) {
				candidates = append(candidates, c)
			}
		}
	}
	if len(candidates) == 0 {
		return mines.Cell{}, ErrNoMoveAvailable
	}
	c := candidates[a.rnd.IntN(len(candidates))]
	a.movesMade.add(c)
	return c, nil
}

func (a *Agent) Safes() []mines.Cell     { return a.safes.sorted() }
func (a *Agent) Mines() []mines.Cell     { return a.mines.sorted() }
func (a *Agent) MovesMade() []mines.Cell { return a.movesMade.sorted() }

func (a *Agent) KnownSafe(c mines.Cell) bool { return a.safes.has(c) }
func (a *Agent) KnownMine(c mines.Cell) bool { return a.mines.has(c) }
func (a *Agent) Moved(c mines.Cell) bool     { return a.movesMade.has(c) }

// Knowledge returns copies of the sentences that still carry information.
func (a *Agent) Knowledge() []*Sentence {
	sentences := make([]*Sentence, 0, len(a.knowledge))
	for _, s := range a.knowledge {
		if s.Len() > 0 {
			sentences = append(sentences, s.clone())
		}
	}
	return sentences
}
