package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"gym-service/internal/authz"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Identifier interface {
	Identify(ctx context.Context, token string) (authz.Identity, error)
}

type ctxKey struct{}

// Identity returns the caller identity stored by the middleware.
func Identity(ctx context.Context) (authz.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(authz.Identity)
	return id, ok
}

// WithIdentity stores a caller identity in the context.
func WithIdentity(ctx context.Context, identity authz.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

// New resolves the bearer token on every request and stores the identity in
// the request context. Requests without a valid credential get 401.
func New(log *slog.Logger, identifier Identifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.New"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "missing bearer token"))
				return
			}

			identity, err := identifier.Identify(r.Context(), token)
			if err != nil {
				log.Warn("Failed to identify caller", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "invalid or expired credential"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		}

		return http.HandlerFunc(fn)
	}
}
