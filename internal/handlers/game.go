package handlers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-ai/internal/config"
	"github.com/vancomm/minesweeper-ai/internal/game"
	"github.com/vancomm/minesweeper-ai/internal/inference"
	"github.com/vancomm/minesweeper-ai/internal/middleware"
	"github.com/vancomm/minesweeper-ai/internal/mines"
	"github.com/vancomm/minesweeper-ai/internal/repository"
)

type GameHandler struct {
	log          logrus.FieldLogger
	store        repository.Store
	ws           *config.WebSocket
	newRand      func() *rand.Rand
	autoplayRate float64
}

// NewGameHandler serves game sessions from store. newRand is called once
// per request since a *rand.Rand is not safe for concurrent use.
func NewGameHandler(
	log logrus.FieldLogger,
	store repository.Store,
	ws *config.WebSocket,
	newRand func() *rand.Rand,
	autoplayRate float64,
) *GameHandler {
	return &GameHandler{
		log:          log,
		store:        store,
		ws:           ws,
		newRand:      newRand,
		autoplayRate: autoplayRate,
	}
}

func (g *GameHandler) logger(r *http.Request) logrus.FieldLogger {
	return g.log.WithField("request_id", middleware.RequestID(r.Context()))
}

func (g *GameHandler) load(ctx context.Context, id int64, log logrus.FieldLogger) (*repository.GameSession, *game.Session, error) {
	stored, err := g.store.FetchGameSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s, err := game.DecodeSession(stored.State, g.newRand(), log.WithField("game_session_id", id))
	if err != nil {
		return nil, nil, fmt.Errorf("stored session %d: %w", id, err)
	}
	return stored, s, nil
}

func (g *GameHandler) save(ctx context.Context, stored *repository.GameSession, s *game.Session) (*repository.GameSession, error) {
	state, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	dead, won, aiMoves := s.Dead, s.Won, s.AIMoves
	params := repository.UpdateGameSessionParams{
		Dead:    &dead,
		Won:     &won,
		AIMoves: &aiMoves,
		State:   state,
	}
	if s.Over() && stored.EndedAt == nil {
		now := time.Now().UTC()
		params.EndedAt = &now
	}
	return g.store.UpdateGameSession(ctx, stored.GameSessionID, params)
}

// withSession loads the session named in the path, applies act and
// stores the result.
func (g *GameHandler) withSession(
	w http.ResponseWriter, r *http.Request,
	act func(s *game.Session) (*game.Move, error),
) {
	log := g.logger(r)
	id, err := pathID(r)
	if err != nil {
		sendError(w, log, http.StatusBadRequest, fmt.Errorf("invalid game id"))
		return
	}
	stored, s, err := g.load(r.Context(), id, log)
	if err != nil {
		fail(w, r, log, err)
		return
	}

	var move *game.Move
	if act != nil {
		if move, err = act(s); err != nil {
			fail(w, r, log, err)
			return
		}
		if stored, err = g.save(r.Context(), stored, s); err != nil {
			fail(w, r, log, err)
			return
		}
	}

	sendJSON(w, log, http.StatusOK, MoveDTO{Move: move, Session: NewGameSessionDTO(stored, s)})
}

func (g *GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	log := g.logger(r)

	var query newGameQuery
	if err := decoder.Decode(&query, r.URL.Query()); err != nil {
		sendError(w, log, http.StatusBadRequest, err)
		return
	}
	params, err := query.params()
	if err != nil {
		sendError(w, log, http.StatusBadRequest, err)
		return
	}
	propagation, err := inference.ParsePropagation(query.Propagation)
	if err != nil {
		sendError(w, log, http.StatusBadRequest, err)
		return
	}

	s, err := game.NewSession(params, g.newRand(), game.Options{Propagation: propagation, Logger: log})
	if err != nil {
		fail(w, r, log, err)
		return
	}
	state, err := s.Bytes()
	if err != nil {
		fail(w, r, log, err)
		return
	}

	create := repository.CreateGameSessionParams{
		Params:      params,
		Propagation: propagation.String(),
		State:       state,
	}
	if claims, ok := middleware.PlayerClaims(r.Context()); ok {
		create.PlayerID = &claims.PlayerID
	}
	stored, err := g.store.CreateGameSession(r.Context(), create)
	if err != nil {
		fail(w, r, log, err)
		return
	}

	log.WithFields(logrus.Fields{
		"game_session_id": stored.GameSessionID,
		"params":          params,
		"propagation":     propagation,
	}).Info("new game")
	sendJSON(w, log, http.StatusCreated, NewGameSessionDTO(stored, s))
}

func (g *GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	g.withSession(w, r, nil)
}

func (g *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	var query moveQuery
	if err := decoder.Decode(&query, r.URL.Query()); err != nil {
		sendError(w, g.logger(r), http.StatusBadRequest, err)
		return
	}
	c := mines.Cell{Row: query.Row, Col: query.Col}

	var apply func(*game.Session, mines.Cell) error
	switch query.Move {
	case "open":
		apply = (*game.Session).Open
	case "flag":
		apply = (*game.Session).Flag
	default:
		sendError(w, g.logger(r), http.StatusBadRequest, fmt.Errorf("unknown move %q", query.Move))
		return
	}

	g.withSession(w, r, func(s *game.Session) (*game.Move, error) {
		return nil, apply(s, c)
	})
}

func (g *GameHandler) AIMove(w http.ResponseWriter, r *http.Request) {
	g.withSession(w, r, func(s *game.Session) (*game.Move, error) {
		move, err := s.AIMove()
		if err != nil {
			return nil, err
		}
		return &move, nil
	})
}

func (g *GameHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	g.withSession(w, r, func(s *game.Session) (*game.Move, error) {
		s.Forfeit()
		return nil, nil
	})
}

func (g *GameHandler) Hint(w http.ResponseWriter, r *http.Request) {
	log := g.logger(r)
	id, err := pathID(r)
	if err != nil {
		sendError(w, log, http.StatusBadRequest, fmt.Errorf("invalid game id"))
		return
	}
	_, s, err := g.load(r.Context(), id, log)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	sendJSON(w, log, http.StatusOK, s.Hint())
}

func (g *GameHandler) Highscores(w http.ResponseWriter, r *http.Request) {
	log := g.logger(r)
	var query highscoreQuery
	if err := decoder.Decode(&query, r.URL.Query()); err != nil {
		sendError(w, log, http.StatusBadRequest, err)
		return
	}
	scores, err := g.store.GetHighscores(r.Context(), query.filter())
	if err != nil {
		fail(w, r, log, err)
		return
	}
	sendJSON(w, log, http.StatusOK, scores)
}
