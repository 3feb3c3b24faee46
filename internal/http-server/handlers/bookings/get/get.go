package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gym-service/api"
	"gym-service/internal/authz"
	"gym-service/internal/http-server/middleware/authn"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type DetailGetter interface {
	GetBookingDetail(ctx context.Context, caller authz.Identity, id string) (*api.BookingDetailResponse, error)
}

type Response struct {
	response.Response
	Booking *api.BookingDetailResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, getter DetailGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.get.New"

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

		booking, err := getter.GetBookingDetail(r.Context(), caller, id)

		if errors.Is(err, response.ErrStale) {
			// A newer detail fetch superseded this one. Not an error:
			// drop the body so the client never renders stale data.
			log.Debug("stale booking detail dropped", slog.String("id", id))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		var denied *authz.DeniedError
		if errors.As(err, &denied) {
			log.Warn("booking detail denied", slog.String("reason", string(denied.Reason)))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), string(denied.Reason)))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get booking"))
			return
		}

		log.Info("Booking retrieved", slog.String("id", id))
		render.JSON(w, r, Response{
			Booking: booking,
		})
	}
}
