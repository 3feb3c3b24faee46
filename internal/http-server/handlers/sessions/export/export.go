package export

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"gym-service/api"
	"gym-service/internal/authz"
	"gym-service/internal/http-server/middleware/authn"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type WeeklyExporter interface {
	ExportWeeklySessions(ctx context.Context, caller authz.Identity, trainerID string, from, to *time.Time) (*api.ExportFile, error)
}

func New(log *slog.Logger, exporter WeeklyExporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.export.New"

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

		trainerID := r.URL.Query().Get("trainer_id")

		from, ok := parseDate(r.URL.Query().Get("start_date"))
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid start_date"))
			return
		}

		to, ok := parseDate(r.URL.Query().Get("end_date"))
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid end_date"))
			return
		}

		file, err := exporter.ExportWeeklySessions(r.Context(), caller, trainerID, from, to)

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
			log.Warn("export subject not found", slog.String("trainer_id", trainerID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.SUBJECT_NOT_FOUND), "export subject not found"))
			return
		}

		if err != nil {
			log.Error("Failed to export weekly sessions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to export weekly sessions"))
			return
		}

		log.Info("Weekly sessions exported", slog.String("filename", file.Filename))

		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(file.Body)
	}
}

func parseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, false
	}

	return &t, true
}
