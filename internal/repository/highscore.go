package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vancomm/minesweeper-ai/internal/game"
)

type Highscore struct {
	GameSessionID int64   `json:"game_session_id" db:"game_session_id"`
	Username      *string `json:"username" db:"username"`
	Width         int     `json:"width" db:"width"`
	Height        int     `json:"height" db:"height"`
	MineCount     int     `json:"mine_count" db:"mine_count"`
	AIMoves       int     `json:"ai_moves" db:"ai_moves"`
	PlaytimeMs    float64 `json:"playtime_ms" db:"playtime_ms"`
}

type HighscoreFilter struct {
	Username *string
	Params   *game.Params
	// Unassisted keeps only games won without a single agent move.
	Unassisted bool
	Limit      int
}

func (f HighscoreFilter) whereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.Username != nil {
		clauses = append(clauses, "username = @username")
		args["username"] = *f.Username
	}
	if f.Params != nil {
		clauses = append(
			clauses,
			"width = @width",
			"height = @height",
			"mine_count = @mine_count",
		)
		args["width"] = f.Params.Width
		args["height"] = f.Params.Height
		args["mine_count"] = f.Params.MineCount
	}
	if f.Unassisted {
		clauses = append(clauses, "ai_moves = 0")
	}
	return strings.Join(clauses, " AND "), args
}

// match mirrors whereClause for stores without SQL.
func (f HighscoreFilter) match(s *GameSession, username *string) bool {
	if f.Username != nil && (username == nil || *username != *f.Username) {
		return false
	}
	if f.Params != nil && s.Params() != *f.Params {
		return false
	}
	return !f.Unassisted || s.AIMoves == 0
}

func (q *Queries) GetHighscores(
	ctx context.Context, filter HighscoreFilter,
) ([]Highscore, error) {
	query := `
	SELECT
		game_session_id,
		username,
		width,
		height,
		mine_count,
		ai_moves,
		(
			extract('epoch' from ended_at) -
			extract('epoch' from started_at)
		) * 1000 playtime_ms
	FROM game_session
		LEFT OUTER JOIN player using (player_id)
	WHERE
		won = true
		AND dead = false
		AND ended_at IS NOT NULL
	`

	whereClause, args := filter.whereClause()
	if whereClause != "" {
		query += " AND " + whereClause
	}
	query += " ORDER BY playtime_ms"
	if filter.Limit > 0 {
		query += " LIMIT @limit"
		args["limit"] = filter.Limit
	}

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Highscore])
}
