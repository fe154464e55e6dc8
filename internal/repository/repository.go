package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username is already taken")
)

// Store persists players and game sessions. Queries serves it from
// Postgres and Badger from an embedded key-value store.
type Store interface {
	CreatePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error)
	FetchPlayer(ctx context.Context, username string) (*Player, error)

	CreateGameSession(ctx context.Context, params CreateGameSessionParams) (*GameSession, error)
	FetchGameSession(ctx context.Context, id int64) (*GameSession, error)
	UpdateGameSession(ctx context.Context, id int64, params UpdateGameSessionParams) (*GameSession, error)

	GetHighscores(ctx context.Context, filter HighscoreFilter) ([]Highscore, error)
}

var (
	_ Store = (*Queries)(nil)
	_ Store = (*Badger)(nil)
)

type Queries struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}

// translate maps driver errors onto the package's sentinel errors.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrUsernameTaken
	}
	return err
}
