package game

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vancomm/minesweeper-ai/internal/inference"
	"github.com/vancomm/minesweeper-ai/internal/metrics"
	"github.com/vancomm/minesweeper-ai/internal/mines"
)

var ErrGameOver = errors.New("game is over")

type MoveKind string

const (
	SafeMove   MoveKind = "safe"
	RandomMove MoveKind = "random"
)

// Move is a cell opened on behalf of the player by the agent.
type Move struct {
	Cell mines.Cell `json:"cell"`
	Kind MoveKind   `json:"kind"`
}

type Options struct {
	Propagation inference.Propagation
	Logger      logrus.FieldLogger
}

// Session binds one board to the agent that plays it and keeps the
// player-visible grid.
type Session struct {
	Params
	Dead, Won bool
	AIMoves   int

	board *mines.Board
	agent *inference.Agent
	grid  Grid /* player knowledge */
	log   logrus.FieldLogger
}

func NewSession(params Params, rnd *rand.Rand, opts Options) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	board, err := mines.NewBoard(params.Height, params.Width, params.MineCount, rnd)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Session{
		Params: params,
		board:  board,
		agent: inference.New(params.Height, params.Width, rnd, inference.Options{
			Propagation: opts.Propagation,
			Logger:      log,
		}),
		grid: make(Grid, params.Cells()),
		log:  log,
	}
	for i := range s.grid {
		s.grid[i] = Unknown
	}
	metrics.GamesStarted.Inc()
	return s, nil
}

func (s *Session) Propagation() inference.Propagation {
	return s.agent.Propagation()
}

func (s *Session) Over() bool {
	return s.Dead || s.Won
}

func (s *Session) Grid() Grid {
	return append(Grid(nil), s.grid...)
}

func (s *Session) State(c mines.Cell) CellState {
	return s.grid[c.Row*s.Width+c.Col]
}

func (s *Session) check(c mines.Cell) error {
	if !c.InBounds(s.Height, s.Width) {
		return fmt.Errorf("%w: %s", mines.ErrOutOfBounds, c)
	}
	if s.Over() {
		return ErrGameOver
	}
	return nil
}

// Open reveals c. Opening a mine ends the game; opening a cell with no
// mined neighbours opens its neighbours as well. Every revealed cell is
// reported to the agent.
func (s *Session) Open(c mines.Cell) error {
	if err := s.check(c); err != nil {
		return err
	}
	if s.State(c).Open() {
		return nil
	}

	mine, err := s.board.IsMine(c)
	if err != nil {
		return err
	}
	if mine {
		s.grid[c.Row*s.Width+c.Col] = ExplodedMine
		s.finish(false)
		return nil
	}

	todo := []mines.Cell{c}
	for len(todo) > 0 {
		cur := todo[0]
		todo = todo[1:]
		i := cur.Row*s.Width + cur.Col
		if s.grid[i].Open() {
			continue
		}

		hint, err := s.board.NearbyMineCount(cur)
		if err != nil {
			return err
		}
		if s.grid[i] == Flagged {
			s.board.UnflagMine(cur)
		}
		s.grid[i] = CellState(hint)
		if err := s.update(cur, hint); err != nil {
			return err
		}

		if hint == 0 {
			for n := range cur.Around(s.Height, s.Width) {
				if !s.State(n).Open() {
					todo = append(todo, n)
				}
			}
		}
	}

	s.checkCleared()
	return nil
}

func (s *Session) update(c mines.Cell, hint int) error {
	safes, known := len(s.agent.Safes()), len(s.agent.Mines())
	if err := s.agent.Update(c, hint); err != nil {
		s.log.WithError(err).WithField("cell", c).Error("agent rejected hint")
		return fmt.Errorf("update knowledge at %s: %w", c, err)
	}
	metrics.Deductions.WithLabelValues("safe").Add(float64(len(s.agent.Safes()) - safes))
	metrics.Deductions.WithLabelValues("mine").Add(float64(len(s.agent.Mines()) - known))
	metrics.KnowledgeSize.Observe(float64(len(s.agent.Knowledge())))
	return nil
}

// Flag toggles the player's flag on a covered cell.
func (s *Session) Flag(c mines.Cell) error {
	if err := s.check(c); err != nil {
		return err
	}
	i := c.Row*s.Width + c.Col
	switch s.grid[i] {
	case Unknown:
		s.grid[i] = Flagged
		s.board.FlagMine(c)
	case Flagged:
		s.grid[i] = Unknown
		s.board.UnflagMine(c)
	default:
		return nil
	}
	if s.board.Won() {
		s.finish(true)
	}
	return nil
}

// AIMove opens the agent's next cell, a known safe one when possible and
// a random one otherwise, then flags every cell the agent knows to be a
// mine.
func (s *Session) AIMove() (Move, error) {
	if s.Over() {
		return Move{}, ErrGameOver
	}

	move := Move{Kind: SafeMove}
	c, err := s.agent.SafeMove()
	if errors.Is(err, inference.ErrNoMoveAvailable) {
		move.Kind = RandomMove
		c, err = s.agent.RandomMove()
	}
	if err != nil {
		return Move{}, err
	}
	move.Cell = c
	s.AIMoves++
	metrics.AIMoves.WithLabelValues(string(move.Kind)).Inc()

	s.log.WithFields(logrus.Fields{
		"cell": c,
		"kind": move.Kind,
	}).Debug("ai move")

	if err := s.Open(c); err != nil {
		return move, err
	}
	if s.Over() {
		return move, nil
	}

	for _, m := range s.agent.Mines() {
		if s.State(m) == Unknown {
			s.grid[m.Row*s.Width+m.Col] = Flagged
			s.board.FlagMine(m)
		}
	}
	if s.board.Won() {
		s.finish(true)
	}
	return move, nil
}

// Autoplay lets the agent play until the game ends, it runs out of moves
// or ctx is done. A nil limiter plays as fast as possible.
func (s *Session) Autoplay(ctx context.Context, lim *rate.Limiter, onMove func(Move) error) error {
	for !s.Over() {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		move, err := s.AIMove()
		if errors.Is(err, inference.ErrNoMoveAvailable) {
			return nil
		}
		if err != nil {
			return err
		}
		if onMove != nil {
			if err := onMove(move); err != nil {
				return err
			}
		}
	}
	return nil
}

// Forfeit ends the game as lost unless it was already won.
func (s *Session) Forfeit() {
	if !s.Over() {
		s.finish(false)
	}
}

// checkCleared wins the game once every safe cell is open, flagging the
// remaining mines.
func (s *Session) checkCleared() {
	if s.Over() {
		return
	}
	covered := 0
	for _, st := range s.grid {
		if !st.Open() {
			covered++
		}
	}
	if covered != s.board.MineCount() {
		return
	}
	for _, m := range s.board.Mines() {
		s.grid[m.Row*s.Width+m.Col] = Flagged
		s.board.FlagMine(m)
	}
	s.finish(true)
}

func (s *Session) finish(won bool) {
	s.Won, s.Dead = won, !won
	s.reveal()
	result := "lost"
	if won {
		result = "won"
	}
	metrics.GamesFinished.WithLabelValues(result).Inc()
	s.log.WithFields(logrus.Fields{
		"result":   result,
		"ai_moves": s.AIMoves,
	}).Info("game finished")
}

func (s *Session) reveal() {
	for i := range s.grid {
		c := mines.Cell{Row: i / s.Width, Col: i % s.Width}
		mine, _ := s.board.IsMine(c)
		switch s.grid[i] {
		case Flagged:
			if s.Won {
				continue
			}
			if mine {
				s.grid[i] = CorrectFlag
			} else {
				s.grid[i] = WrongFlag
			}
		case Unknown:
			if mine {
				s.grid[i] = UnflaggedMine
			} else {
				n, _ := s.board.NearbyMineCount(c)
				s.grid[i] = CellState(n)
			}
		}
	}
}

// Hint is the agent's current knowledge, for display.
type Hint struct {
	Safes     []mines.Cell `json:"safes"`
	Mines     []mines.Cell `json:"mines"`
	MovesMade []mines.Cell `json:"moves_made"`
	Sentences []string     `json:"sentences"`
}

func (s *Session) Hint() Hint {
	h := Hint{
		Safes:     s.agent.Safes(),
		Mines:     s.agent.Mines(),
		MovesMade: s.agent.MovesMade(),
	}
	for _, sentence := range s.agent.Knowledge() {
		h.Sentences = append(h.Sentences, sentence.String())
	}
	return h
}

func (s *Session) String() string {
	return s.grid.ToString(s.Width)
}

type sessionState struct {
	Params    Params
	Dead, Won bool
	AIMoves   int
	Board     mines.BoardState
	Agent     inference.State
	Grid      Grid
}

func (s *Session) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(sessionState{
		Params:  s.Params,
		Dead:    s.Dead,
		Won:     s.Won,
		AIMoves: s.AIMoves,
		Board:   s.board.State(),
		Agent:   s.agent.State(),
		Grid:    s.grid,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeSession(buf []byte, rnd *rand.Rand, log logrus.FieldLogger) (*Session, error) {
	var state sessionState
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	board, err := mines.RestoreBoard(state.Board)
	if err != nil {
		return nil, err
	}
	agent, err := inference.Restore(state.Agent, rnd, log)
	if err != nil {
		return nil, err
	}
	if len(state.Grid) != state.Params.Cells() {
		return nil, fmt.Errorf("decode session: grid has %d cells, want %d",
			len(state.Grid), state.Params.Cells())
	}
	return &Session{
		Params:  state.Params,
		Dead:    state.Dead,
		Won:     state.Won,
		AIMoves: state.AIMoves,
		board:   board,
		agent:   agent,
		grid:    state.Grid,
		log:     log,
	}, nil
}
