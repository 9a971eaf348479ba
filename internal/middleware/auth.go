package middleware

import (
	"net/http"

	"procurement-be/internal/access"
	"procurement-be/internal/apperror"
	"procurement-be/internal/auth"
	"procurement-be/internal/logger"
	"procurement-be/internal/transport"

	"go.uber.org/zap"
)

// TokenVerifier turns a bearer token into the actor it names.
type TokenVerifier interface {
	Verify(token string) (access.Actor, error)
}

var _ TokenVerifier = (*auth.Verifier)(nil)

var ErrInvalidToken = apperror.New(apperror.KindUnauthenticated, "invalid or expired token")

// AuthMiddleware attaches the verified actor to the request context.
// Requests without a token pass through anonymously and are refused later by
// handlers that need an actor; a token that fails verification is refused here.
func AuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, source := auth.RequestToken(r)
			if source == auth.SourceNone {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := v.Verify(tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("rejected access token",
					zap.String("source", string(source)),
					zap.Error(err),
				)
				transport.WriteError(w, r, ErrInvalidToken)
				return
			}

			ctx := access.WithActor(r.Context(), actor)
			ctx = logger.WithActorID(ctx, actor.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
