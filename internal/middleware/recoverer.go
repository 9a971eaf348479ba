package middleware

import (
	"net/http"

	"procurement-be/internal/apperror"
	"procurement-be/internal/logger"
	"procurement-be/internal/transport"

	"go.uber.org/zap"
)

// Recoverer turns a handler panic into a logged Internal error response.
// http.ErrAbortHandler is re-raised so the server can drop the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromCtx(r.Context()).Error("panic serving request",
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			transport.WriteError(w, r, apperror.New(apperror.KindInternal, "panic serving request"))
		}()
		next.ServeHTTP(w, r)
	})
}
