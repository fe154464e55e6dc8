package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-ai/internal/config"
	"github.com/vancomm/minesweeper-ai/internal/database"
	"github.com/vancomm/minesweeper-ai/internal/middleware"
	"github.com/vancomm/minesweeper-ai/internal/repository"
)

type App struct {
	log     *logrus.Logger
	router  *http.ServeMux
	store   repository.Store
	cookies *config.Cookies
	jwt     *config.JWT
	ws      *config.WebSocket
	closers []io.Closer
}

func New(log *logrus.Logger) *App {
	return &App{
		log:    log,
		router: http.NewServeMux(),
		ws:     config.NewWebSocket(),
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (a *App) openStore(ctx context.Context) error {
	kind, err := config.Store()
	if err != nil {
		return err
	}
	a.log.WithField("store", kind).Info("opening store")

	switch kind {
	case config.StorePostgres:
		pool, err := database.ConnectAndMigrate(ctx)
		if err != nil {
			return fmt.Errorf("unable to connect to db: %w", err)
		}
		a.closers = append(a.closers, closerFunc(func() error {
			pool.Close()
			return nil
		}))
		a.store = repository.New(pool)
	default:
		db, err := database.OpenBadger(config.BadgerPath(), a.log)
		if err != nil {
			return err
		}
		store, err := repository.NewBadger(db)
		if err != nil {
			db.Close()
			return err
		}
		// sequences are released before the database closes
		a.closers = append(a.closers, db, store)
		a.store = store
	}
	return nil
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

func (a *App) Start(ctx context.Context) error {
	var err error
	if a.cookies, err = config.NewCookies(); err != nil {
		return err
	}
	if a.jwt, err = config.NewJWT(); err != nil {
		return err
	}
	autoplayRate, err := config.AutoplayRate()
	if err != nil {
		return err
	}
	if err := a.openStore(ctx); err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			a.log.WithError(err).Error("unable to close store")
		}
	}()

	a.loadRoutes(autoplayRate)

	server := &http.Server{
		Addr: config.Addr(),
		Handler: middleware.Wrap(
			a.router,
			middleware.Auth(a.log, a.cookies, a.jwt),
			middleware.Cors(),
			middleware.Logging(a.log),
			middleware.RequestIDs(),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
