package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors reflects any origin and allows credentials so the auth cookies reach
// the API from a separately served frontend.
func Cors() Middleware {
	options := cors.Options{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	}
	return cors.New(options).Handler
}
