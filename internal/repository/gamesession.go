package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vancomm/minesweeper-ai/internal/game"
)

type GameSession struct {
	GameSessionID int64      `db:"game_session_id"`
	PlayerID      *int64     `db:"player_id"`
	Width         int        `db:"width"`
	Height        int        `db:"height"`
	MineCount     int        `db:"mine_count"`
	Propagation   string     `db:"propagation"`
	AIMoves       int        `db:"ai_moves"`
	Dead          bool       `db:"dead"`
	Won           bool       `db:"won"`
	StartedAt     time.Time  `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`
	State         []byte     `db:"state"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (s GameSession) Params() game.Params {
	return game.Params{Height: s.Height, Width: s.Width, MineCount: s.MineCount}
}

type CreateGameSessionParams struct {
	PlayerID    *int64
	Params      game.Params
	Propagation string
	State       []byte
}

func (q *Queries) CreateGameSession(
	ctx context.Context, params CreateGameSessionParams,
) (*GameSession, error) {
	args := pgx.NamedArgs{
		"player_id":   params.PlayerID,
		"width":       params.Params.Width,
		"height":      params.Params.Height,
		"mine_count":  params.Params.MineCount,
		"propagation": params.Propagation,
		"state":       params.State,
	}
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO game_session (
			player_id, width, height, mine_count, propagation, dead, won, state
		)
		VALUES (
			@player_id, @width, @height, @mine_count, @propagation, false, false, @state
		)
		RETURNING *;`,
		args,
	)
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
	return s, translate(err)
}

func (q *Queries) FetchGameSession(ctx context.Context, id int64) (*GameSession, error) {
	rows, _ := q.db.Query(
		ctx,
		"SELECT * FROM game_session WHERE game_session_id = $1",
		id,
	)
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
	return s, translate(err)
}

type UpdateGameSessionParams struct {
	Dead    *bool
	Won     *bool
	AIMoves *int
	EndedAt *time.Time
	State   []byte
}

func (p UpdateGameSessionParams) setClause() (string, pgx.NamedArgs) {
	parts := make([]string, 0)
	args := pgx.NamedArgs{}

	if p.Dead != nil {
		parts = append(parts, "dead = @dead")
		args["dead"] = *p.Dead
	}
	if p.Won != nil {
		parts = append(parts, "won = @won")
		args["won"] = *p.Won
	}
	if p.AIMoves != nil {
		parts = append(parts, "ai_moves = @ai_moves")
		args["ai_moves"] = *p.AIMoves
	}
	if p.EndedAt != nil {
		parts = append(parts, "ended_at = @ended_at")
		args["ended_at"] = *p.EndedAt
	}
	if p.State != nil {
		parts = append(parts, "state = @state")
		args["state"] = p.State
	}

	return strings.Join(parts, ", "), args
}

// apply copies the set fields onto s.
func (p UpdateGameSessionParams) apply(s *GameSession) {
	if p.Dead != nil {
		s.Dead = *p.Dead
	}
	if p.Won != nil {
		s.Won = *p.Won
	}
	if p.AIMoves != nil {
		s.AIMoves = *p.AIMoves
	}
	if p.EndedAt != nil {
		t := *p.EndedAt
		s.EndedAt = &t
	}
	if p.State != nil {
		s.State = p.State
	}
}

func (q *Queries) UpdateGameSession(
	ctx context.Context, id int64, params UpdateGameSessionParams,
) (*GameSession, error) {
	setClause, args := params.setClause()
	if setClause == "" {
		return q.FetchGameSession(ctx, id)
	}
	args["game_session_id"] = id
	rows, _ := q.db.Query(
		ctx,
		"UPDATE game_session SET "+setClause+" WHERE game_session_id = @game_session_id RETURNING *",
		args,
	)
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
	return s, translate(err)
}
