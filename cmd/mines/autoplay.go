package main

import (
	"context"
	"fmt"
	"hash/maphash"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-ai/internal/game"
	"github.com/vancomm/minesweeper-ai/internal/inference"
)

type simulation struct {
	Params      game.Params
	Propagation inference.Propagation
	Games       int
	Workers     int
	// Seed makes runs repeatable; game i uses PCG(Seed, i).
	Seed uint64
	Log  logrus.FieldLogger
}

type stats struct {
	Games, Won, Lost       int
	SafeMoves, RandomMoves int
	LostOnFirstRandomMove  int
	Elapsed                time.Duration

	params      game.Params
	propagation inference.Propagation
}

func (s stats) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Won) / float64(s.Games)
}

func (s stats) String() string {
	return fmt.Sprintf(
		"%dx%d/%d %s: %d games, %d won (%.1f%%), %d lost (%d on the first move), %d safe and %d random moves in %s",
		s.params.Height, s.params.Width, s.params.MineCount, s.propagation,
		s.Games, s.Won, 100*s.WinRate(), s.Lost, s.LostOnFirstRandomMove,
		s.SafeMoves, s.RandomMoves, s.Elapsed.Round(time.Millisecond),
	)
}

// simulate plays sim.Games agent-only games in parallel.
func simulate(ctx context.Context, sim simulation) (stats, error) {
	if err := sim.Params.Validate(); err != nil {
		return stats{}, err
	}
	if sim.Seed == 0 {
		sim.Seed = new(maphash.Hash).Sum64()
	}
	if sim.Log == nil {
		sim.Log = logrus.StandardLogger()
	}

	var (
		mu    sync.Mutex
		total = stats{params: sim.Params, propagation: sim.Propagation}
		start = time.Now()
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(sim.Workers, 1))
	for i := range sim.Games {
		g.Go(func() error {
			rnd := rand.New(rand.NewPCG(sim.Seed, uint64(i)))
			s, err := game.NewSession(sim.Params, rnd, game.Options{
				Propagation: sim.Propagation,
				Logger:      sim.Log.WithField("game", i),
			})
			if err != nil {
				return err
			}

			var safe, random int
			err = s.Autoplay(ctx, nil, func(m game.Move) error {
				if m.Kind == game.SafeMove {
					safe++
				} else {
					random++
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}

			mu.Lock()
			defer mu.Unlock()
			total.Games++
			total.SafeMoves += safe
			total.RandomMoves += random
			if s.Won {
				total.Won++
			} else {
				total.Lost++
				if s.AIMoves == 1 {
					total.LostOnFirstRandomMove++
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats{}, err
	}
	total.Elapsed = time.Since(start)
	return total, nil
}
