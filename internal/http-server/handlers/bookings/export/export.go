package export

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
	"github.com/go-chi/render"
)

type HistoryExporter interface {
	ExportBookingHistory(ctx context.Context, caller authz.Identity, memberID string, onlyPast bool) (*api.ExportFile, error)
}

func New(log *slog.Logger, exporter HistoryExporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.export.New"

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

		memberID := r.URL.Query().Get("member_id")
		onlyPast := r.URL.Query().Get("only_past") == "true"

		file, err := exporter.ExportBookingHistory(r.Context(), caller, memberID, onlyPast)

		var denied *authz.DeniedError
		if errors.As(err, &denied) {
			log.Warn("export denied", slog.String("reason", string(denied.Reason)))
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

		if errors.Is(err, response.ErrSubjectNotFound) {
			log.Warn("export subject not found", slog.String("member_id", memberID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.SUBJECT_NOT_FOUND), "export subject not found"))
			return
		}

		if err != nil {
			log.Error("Failed to export booking history", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to export booking history"))
			return
		}

		log.Info("Booking history exported", slog.String("filename", file.Filename))

		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(file.Body)
	}
}
