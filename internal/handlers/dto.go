package handlers

import (
	"strconv"

	"github.com/vancomm/minesweeper-ai/internal/game"
	"github.com/vancomm/minesweeper-ai/internal/repository"
)

type GameSessionDTO struct {
	GameSessionID string    `json:"game_session_id"`
	Height        int       `json:"height"`
	Width         int       `json:"width"`
	MineCount     int       `json:"mine_count"`
	Propagation   string    `json:"propagation"`
	Grid          game.Grid `json:"grid"`
	Dead          bool      `json:"dead"`
	Won           bool      `json:"won"`
	AIMoves       int       `json:"ai_moves"`
	StartedAt     int64     `json:"started_at"`
	EndedAt       *int64    `json:"ended_at,omitempty"`
}

func NewGameSessionDTO(stored *repository.GameSession, s *game.Session) *GameSessionDTO {
	dto := &GameSessionDTO{
		GameSessionID: strconv.FormatInt(stored.GameSessionID, 10),
		Height:        s.Height,
		Width:         s.Width,
		MineCount:     s.MineCount,
		Propagation:   s.Propagation().String(),
		Grid:          s.Grid(),
		Dead:          s.Dead,
		Won:           s.Won,
		AIMoves:       s.AIMoves,
		StartedAt:     stored.StartedAt.UnixMilli(),
	}
	if stored.EndedAt != nil {
		e := stored.EndedAt.UnixMilli()
		dto.EndedAt = &e
	}
	return dto
}

type MoveDTO struct {
	Move    *game.Move      `json:"move,omitempty"`
	Session *GameSessionDTO `json:"session"`
}

type newGameQuery struct {
	Difficulty  string `schema:"difficulty"`
	Height      int    `schema:"height"`
	Width       int    `schema:"width"`
	MineCount   int    `schema:"mine_count"`
	Propagation string `schema:"propagation"`
}

func (q newGameQuery) params() (game.Params, error) {
	if q.Difficulty != "" {
		return game.ParseDifficulty(q.Difficulty)
	}
	p := game.Params{Height: q.Height, Width: q.Width, MineCount: q.MineCount}
	return p, p.Validate()
}

type moveQuery struct {
	Move string `schema:"move,required"`
	Row  int    `schema:"row,required"`
	Col  int    `schema:"col,required"`
}

type highscoreQuery struct {
	Username   *string `schema:"username"`
	Height     int     `schema:"height"`
	Width      int     `schema:"width"`
	MineCount  int     `schema:"mine_count"`
	Unassisted bool    `schema:"unassisted"`
	Limit      int     `schema:"limit"`
}

func (q highscoreQuery) filter() repository.HighscoreFilter {
	f := repository.HighscoreFilter{
		Username:   q.Username,
		Unassisted: q.Unassisted,
		Limit:      q.Limit,
	}
	if q.Height > 0 && q.Width > 0 {
		f.Params = &game.Params{Height: q.Height, Width: q.Width, MineCount: q.MineCount}
	}
	return f
}
