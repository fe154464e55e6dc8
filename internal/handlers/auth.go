package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/minesweeper-ai/internal/config"
	"github.com/vancomm/minesweeper-ai/internal/middleware"
	"github.com/vancomm/minesweeper-ai/internal/repository"
)

var (
	ErrBadAuthBody      = errors.New("request body must contain url-encoded username and password")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWrongCredentials = errors.New("wrong username or password")
)

type Auth struct {
	log     logrus.FieldLogger
	store   repository.Store
	cookies *config.Cookies
	jwt     *config.JWT
}

func NewAuth(
	log logrus.FieldLogger,
	store repository.Store,
	cookies *config.Cookies,
	jwt *config.JWT,
) *Auth {
	return &Auth{log: log, store: store, cookies: cookies, jwt: jwt}
}

type PlayerInfo struct {
	PlayerID int64  `json:"player_id"`
	Username string `json:"username"`
}

type Status struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

func (a *Auth) issue(w http.ResponseWriter, playerID int64, username string) error {
	claims := config.NewPlayerClaims(playerID, username, a.jwt.TokenLifetime)
	token, err := a.jwt.Sign(claims)
	if err != nil {
		return err
	}
	return a.cookies.Refresh(w, token, claims.ExpiresAt.Time)
}

func credentials(r *http.Request) (username, password string, err error) {
	if err := r.ParseForm(); err != nil {
		return "", "", ErrBadAuthBody
	}
	username, password = r.FormValue("username"), r.FormValue("password")
	if username == "" || password == "" {
		return "", "", ErrBadAuthBody
	}
	// bcrypt ignores anything past 72 bytes
	if len(password) > 72 {
		return "", "", ErrPasswordTooLong
	}
	return username, password, nil
}

func (a *Auth) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r.Context())
	if !ok {
		a.cookies.Clear(w)
		sendJSON(w, a.log, http.StatusOK, Status{LoggedIn: false})
		return
	}
	if err := a.issue(w, claims.PlayerID, claims.Username); err != nil {
		fail(w, r, a.log, err)
		return
	}
	sendJSON(w, a.log, http.StatusOK, Status{
		LoggedIn: true,
		Player:   &PlayerInfo{claims.PlayerID, claims.Username},
	})
}

func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	username, password, err := credentials(r)
	if err != nil {
		sendError(w, a.log, http.StatusBadRequest, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fail(w, r, a.log, err)
		return
	}

	player, err := a.store.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		fail(w, r, a.log, err)
		return
	}
	if err := a.issue(w, player.PlayerID, player.Username); err != nil {
		fail(w, r, a.log, err)
		return
	}

	a.log.WithField("username", username).Info("player registered")
	sendJSON(w, a.log, http.StatusCreated, PlayerInfo{player.PlayerID, player.Username})
}

func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	username, password, err := credentials(r)
	if err != nil {
		sendError(w, a.log, http.StatusBadRequest, err)
		return
	}

	player, err := a.store.FetchPlayer(r.Context(), username)
	if errors.Is(err, repository.ErrNotFound) {
		sendError(w, a.log, http.StatusUnauthorized, ErrWrongCredentials)
		return
	}
	if err != nil {
		fail(w, r, a.log, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(password)); err != nil {
		sendError(w, a.log, http.StatusUnauthorized, ErrWrongCredentials)
		return
	}

	if err := a.issue(w, player.PlayerID, player.Username); err != nil {
		fail(w, r, a.log, err)
		return
	}
	sendJSON(w, a.log, http.StatusOK, PlayerInfo{player.PlayerID, player.Username})
}

func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
