package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-ai/internal/config"
)

// Auth attaches the player claims carried by the auth cookies to the
// request context. Requests with missing or invalid cookies pass through
// anonymously; invalid cookies are cleared.
func Auth(log logrus.FieldLogger, cookies *config.Cookies, jwt *config.JWT) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cookies.Token(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := jwt.ParsePlayerClaims(token)
			if err != nil {
				log.WithError(err).WithField("request_id", RequestID(r.Context())).
					Debug("invalid auth cookies")
				cookies.Clear(w)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPlayerClaims(r.Context(), claims)))
		})
	}
}
