package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/logger"
)

// Recoverer turns panics in later handlers into a 500 sent through the responder.
func Recoverer(responder *apperr.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					// the server aborts the response silently for this value
					panic(rec)
				}

				logger.ContextRequestLogger(r.Context()).Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				responder.Respond(w, r, apperr.PanicError(rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
