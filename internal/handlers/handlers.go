package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-ai/internal/game"
	"github.com/vancomm/minesweeper-ai/internal/inference"
	"github.com/vancomm/minesweeper-ai/internal/middleware"
	"github.com/vancomm/minesweeper-ai/internal/mines"
	"github.com/vancomm/minesweeper-ai/internal/repository"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func sendJSON(w http.ResponseWriter, log logrus.FieldLogger, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.WithError(err).Error("unable to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.WithError(err).Error("unable to send response")
	}
}

type errorReply struct {
	Error string `json:"error"`
}

func sendError(w http.ResponseWriter, log logrus.FieldLogger, status int, err error) {
	sendJSON(w, log, status, errorReply{err.Error()})
}

// statusOf maps domain errors to a response status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrUsernameTaken),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, inference.ErrNoMoveAvailable):
		return http.StatusConflict
	case errors.Is(err, mines.ErrOutOfBounds),
		errors.Is(err, game.ErrInvalidParams):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail replies with the status matching err. Server errors are logged and
// their details withheld from the client.
func fail(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("request_id", middleware.RequestID(r.Context())).
			Error("request failed")
		sendError(w, log, status, errors.New(http.StatusText(status)))
		return
	}
	sendError(w, log, status, err)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
