package main

import (
	"fmt"
	"hash/maphash"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/vancomm/minesweeper-ai/internal/app"
	"github.com/vancomm/minesweeper-ai/internal/config"
	"github.com/vancomm/minesweeper-ai/internal/database"
	"github.com/vancomm/minesweeper-ai/internal/game"
	"github.com/vancomm/minesweeper-ai/internal/inference"
	"github.com/vancomm/minesweeper-ai/internal/tui"
)

var (
	configPath  string
	migrateDown bool
	games       int
	workers     int
	pace        time.Duration

	// shared by autoplay and play
	difficulty  string
	params      game.Params
	propagation string
	seed        uint64
)

var (
	rootCmd = &cobra.Command{
		Use:           "mines",
		Short:         "Minesweeper with a knowledge-based inference agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				f, err := config.ReadFile(configPath)
				if err != nil {
					return err
				}
				if err := f.Apply(); err != nil {
					return err
				}
			}
			logger, err := config.NewLogger()
			if err != nil {
				return err
			}
			log = logger
			if configPath != "" {
				log.WithField("path", configPath).Debug("config file applied")
			}
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.New(log).Start(cmd.Context())
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(migrateDown); err != nil {
				return err
			}
			log.WithField("down", migrateDown).Info("migrations applied")
			return nil
		},
	}

	autoplayCmd = &cobra.Command{
		Use:   "autoplay",
		Short: "Let the agent play many games and report how it did",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, prop, err := gameOptions()
			if err != nil {
				return err
			}
			stats, err := simulate(cmd.Context(), simulation{
				Params:      p,
				Propagation: prop,
				Games:       games,
				Workers:     workers,
				Seed:        seed,
				Log:         log,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	playCmd = &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal with the agent at hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, prop, err := gameOptions()
			if err != nil {
				return err
			}
			log.SetOutput(io.Discard) // the terminal belongs to the ui
			m, err := tui.New(p, newRand(), game.Options{Propagation: prop, Logger: log}, pace)
			if err != nil {
				return err
			}
			return tui.Run(m)
		},
	}
)

func newRand() *rand.Rand {
	if seed != 0 {
		return rand.New(rand.NewPCG(seed, seed))
	}
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

// gameOptions resolves the board flags. An explicit --difficulty wins over
// --height/--width/--mines.
func gameOptions() (game.Params, inference.Propagation, error) {
	prop, err := inference.ParsePropagation(propagation)
	if err != nil {
		return game.Params{}, 0, err
	}
	if difficulty != "" {
		p, err := game.ParseDifficulty(difficulty)
		return p, prop, err
	}
	return params, prop, params.Validate()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	for _, cmd := range []*cobra.Command{autoplayCmd, playCmd} {
		cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "beginner, intermediate or expert")
		cmd.Flags().IntVar(&params.Height, "height", game.Beginner.Height, "board height")
		cmd.Flags().IntVar(&params.Width, "width", game.Beginner.Width, "board width")
		cmd.Flags().IntVar(&params.MineCount, "mines", game.Beginner.MineCount, "number of mines")
		cmd.Flags().StringVar(&propagation, "propagation", "single", "single or fixed")
		cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 picks one")
	}

	autoplayCmd.Flags().IntVarP(&games, "games", "n", 1000, "number of games")
	autoplayCmd.Flags().IntVarP(&workers, "workers", "w", 4, "games played in parallel")
	playCmd.Flags().DurationVar(&pace, "pace", 250*time.Millisecond, "delay between autoplay moves")
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back every migration")

	rootCmd.AddCommand(serveCmd, migrateCmd, autoplayCmd, playCmd)
}
