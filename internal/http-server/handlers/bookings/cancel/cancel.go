package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gym-service/internal/authz"
	"gym-service/internal/http-server/middleware/authn"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type BookingCanceller interface {
	CancelBooking(ctx context.Context, caller authz.Identity, id string) error
}

func New(log *slog.Logger, canceller BookingCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.cancel.New"

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

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		err := canceller.CancelBooking(r.Context(), caller, id)

		var denied *authz.DeniedError
		if errors.As(err, &denied) {
			log.Warn("cancel denied", slog.String("reason", string(denied.Reason)))
			status := http.StatusForbidden
			code := response.FORBIDDEN
			if denied.Reason == authz.ReasonNotFound {
				status = http.StatusNotFound
				code = response.NOT_FOUND
			}
			w.WriteHeader(status)
			render.JSON(w, r, response.Error(string(code), string(denied.Reason)))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to cancel booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to cancel booking"))
			return
		}

		log.Info("Booking cancelled", slog.String("id", id))
		render.JSON(w, r, response.Response{})
	}
}
