package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	playerPrefix   = "player/"
	playerIDPrefix = "player_id/"
	sessionPrefix  = "game_session/"
)

// Badger is a Store over an embedded badger database. Records are JSON
// encoded; ids come from badger sequences.
type Badger struct {
	db         *badger.DB
	playerSeq  *badger.Sequence
	sessionSeq *badger.Sequence
}

func NewBadger(db *badger.DB) (*Badger, error) {
	playerSeq, err := db.GetSequence([]byte("seq/player"), 16)
	if err != nil {
		return nil, fmt.Errorf("player sequence: %w", err)
	}
	sessionSeq, err := db.GetSequence([]byte("seq/game_session"), 64)
	if err != nil {
		playerSeq.Release()
		return nil, fmt.Errorf("game session sequence: %w", err)
	}
	return &Badger{db: db, playerSeq: playerSeq, sessionSeq: sessionSeq}, nil
}

// Close returns unused sequence leases. The database itself is left open.
func (b *Badger) Close() error {
	return errors.Join(b.playerSeq.Release(), b.sessionSeq.Release())
}

// next skips zero so ids start at one, as with identity columns.
func next(seq *badger.Sequence) (int64, error) {
	for {
		id, err := seq.Next()
		if err != nil {
			return 0, err
		}
		if id > 0 {
			return int64(id), nil
		}
	}
}

func sessionKey(id int64) []byte {
	return fmt.Appendf(nil, "%s%020d", sessionPrefix, id)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, val)
}

func (b *Badger) CreatePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	id, err := next(b.playerSeq)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	p := &Player{
		PlayerID:     id,
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		key := []byte(playerPrefix + params.Username)
		if _, err := txn.Get(key); err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, key, p); err != nil {
			return err
		}
		return txn.Set([]byte(playerIDPrefix+strconv.FormatInt(id, 10)), []byte(p.Username))
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Badger) FetchPlayer(ctx context.Context, username string) (*Player, error) {
	var p Player
	err := b.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, []byte(playerPrefix+username), &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *Badger) CreateGameSession(
	ctx context.Context, params CreateGameSessionParams,
) (*GameSession, error) {
	id, err := next(b.sessionSeq)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &GameSession{
		GameSessionID: id,
		PlayerID:      params.PlayerID,
		Width:         params.Params.Width,
		Height:        params.Params.Height,
		MineCount:     params.Params.MineCount,
		Propagation:   params.Propagation,
		StartedAt:     now,
		State:         params.State,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, sessionKey(id), s)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *Badger) FetchGameSession(ctx context.Context, id int64) (*GameSession, error) {
	var s GameSession
	err := b.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, sessionKey(id), &s)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (b *Badger) UpdateGameSession(
	ctx context.Context, id int64, params UpdateGameSessionParams,
) (*GameSession, error) {
	var s GameSession
	err := b.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, sessionKey(id), &s); err != nil {
			return err
		}
		params.apply(&s)
		s.UpdatedAt = time.Now()
		return setJSON(txn, sessionKey(id), &s)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (b *Badger) GetHighscores(
	ctx context.Context, filter HighscoreFilter,
) ([]Highscore, error) {
	scores := make([]Highscore, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var s GameSession
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				return err
			}
			if !s.Won || s.Dead || s.EndedAt == nil {
				continue
			}

			var username *string
			if s.PlayerID != nil {
				item, err := txn.Get([]byte(playerIDPrefix + strconv.FormatInt(*s.PlayerID, 10)))
				if err == nil {
					name, err := item.ValueCopy(nil)
					if err != nil {
						return err
					}
					username = new(string)
					*username = string(name)
				} else if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
			}
			if !filter.match(&s, username) {
				continue
			}

			scores = append(scores, Highscore{
				GameSessionID: s.GameSessionID,
				Username:      username,
				Width:         s.Width,
				Height:        s.Height,
				MineCount:     s.MineCount,
				AIMoves:       s.AIMoves,
				PlaytimeMs:    float64(s.EndedAt.Sub(s.StartedAt).Microseconds()) / 1000,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(scores, func(a, b Highscore) int {
		switch {
		case a.PlaytimeMs < b.PlaytimeMs:
			return -1
		case a.PlaytimeMs > b.PlaytimeMs:
			return 1
		}
		return 0
	})
	if filter.Limit > 0 && len(scores) > filter.Limit {
		scores = scores[:filter.Limit]
	}
	return scores, nil
}
