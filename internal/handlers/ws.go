package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vancomm/minesweeper-ai/internal/game"
	"github.com/vancomm/minesweeper-ai/internal/metrics"
	"github.com/vancomm/minesweeper-ai/internal/mines"
	"github.com/vancomm/minesweeper-ai/internal/repository"
)

var commandNargs = map[string]int{
	"g": 0, // get
	"o": 2, // open row col
	"f": 2, // flag row col
	"a": 0, // one agent move
	"p": 0, // agent plays to the end
	"r": 0, // resign
}

type wsReply struct {
	MoveDTO
	Error string `json:"error,omitempty"`
}

func parseCell(args []string) (mines.Cell, error) {
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return mines.Cell{}, fmt.Errorf("row must be an int")
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return mines.Cell{}, fmt.Errorf("col must be an int")
	}
	return mines.Cell{Row: row, Col: col}, nil
}

// wsConn is one websocket client attached to a stored session.
type wsConn struct {
	g      *GameHandler
	conn   *websocket.Conn
	log    logrus.FieldLogger
	stored *repository.GameSession
	s      *game.Session
}

func (c *wsConn) reply(move *game.Move, err error) error {
	r := wsReply{MoveDTO: MoveDTO{Move: move, Session: NewGameSessionDTO(c.stored, c.s)}}
	if err != nil {
		r.Error = err.Error()
	}
	return c.conn.WriteJSON(r)
}

func (c *wsConn) save(ctx context.Context) error {
	stored, err := c.g.save(ctx, c.stored, c.s)
	if err != nil {
		return err
	}
	c.stored = stored
	return nil
}

// run executes one command. The returned error is reported to the client;
// a non-nil fatal error closes the connection.
func (c *wsConn) run(ctx context.Context, command string) (cmdErr, fatal error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, nil
	}
	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", parts[0]), nil
	}
	if nargs != len(parts)-1 {
		return fmt.Errorf("%q takes %d arguments", parts[0], nargs), nil
	}

	var move *game.Move
	switch parts[0] {
	case "g":
		return nil, c.reply(nil, nil)
	case "o", "f":
		cell, err := parseCell(parts[1:])
		if err != nil {
			return err, nil
		}
		if parts[0] == "o" {
			err = c.s.Open(cell)
		} else {
			err = c.s.Flag(cell)
		}
		if err != nil {
			return err, nil
		}
	case "a":
		m, err := c.s.AIMove()
		if err != nil {
			return err, nil
		}
		move = &m
	case "p":
		if c.s.Over() {
			return game.ErrGameOver, nil
		}
		limit := rate.Inf
		if c.g.autoplayRate > 0 {
			limit = rate.Limit(c.g.autoplayRate)
		}
		lim := rate.NewLimiter(limit, 1)
		err := c.s.Autoplay(ctx, lim, func(m game.Move) error {
			if err := c.save(ctx); err != nil {
				return err
			}
			return c.reply(&m, nil)
		})
		if err != nil {
			return nil, err
		}
		return nil, nil
	case "r":
		c.s.Forfeit()
	}

	if err := c.save(ctx); err != nil {
		return nil, err
	}
	return nil, c.reply(move, nil)
}

// Connect streams a session over a websocket. Each text message holds
// newline separated commands; every command is answered with the session.
func (g *GameHandler) Connect(w http.ResponseWriter, r *http.Request) {
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

	conn, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("unable to upgrade")
		return
	}
	defer conn.Close()

	metrics.LiveConnections.Inc()
	defer metrics.LiveConnections.Dec()

	log = log.WithFields(logrus.Fields{
		"conn_id":         uuid.NewString(),
		"game_session_id": id,
	})
	log.Debug("websocket connected")
	c := &wsConn{g: g, conn: conn, log: log, stored: stored, s: s}
	ctx := r.Context()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("abnormal ws break")
			}
			return
		}
		if mt != websocket.TextMessage {
			return
		}
		for _, command := range strings.Split(strings.TrimSpace(string(message)), "\n") {
			log.WithField("command", command).Debug("> ws")
			cmdErr, fatal := c.run(ctx, command)
			if fatal != nil {
				if !errors.Is(fatal, context.Canceled) {
					log.WithError(fatal).Error("websocket command failed")
				}
				return
			}
			if cmdErr != nil {
				if err := c.reply(nil, cmdErr); err != nil {
					return
				}
			}
		}
	}
}
