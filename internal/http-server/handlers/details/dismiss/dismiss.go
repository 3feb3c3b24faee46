package dismiss

import (
	"log/slog"
	"net/http"

	"gym-service/internal/authz"
	"gym-service/internal/http-server/middleware/authn"
	"gym-service/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type DetailDismisser interface {
	DismissDetail(caller authz.Identity)
}

// New signals that the caller left the detail view, invalidating any detail
// fetch still in flight for them.
func New(log *slog.Logger, dismisser DetailDismisser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.details.dismiss.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller, ok := authn.Identity(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "missing identity"))
			return
		}

		dismisser.DismissDetail(caller)

		log.Debug("detail view dismissed", slog.String("caller", caller.ID))
		w.WriteHeader(http.StatusNoContent)
	}
}
