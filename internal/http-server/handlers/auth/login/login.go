package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gym-service/api"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type Request struct {
	api.LoginRequest
}

type Response struct {
	response.Response
	api.LoginResponse
}

func New(log *slog.Logger, authenticator Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.login.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.Email == "" || req.Password == "" {
			log.Error("email or password is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "email and password are required"))
			return
		}

		token, err := authenticator.Login(r.Context(), req.Email, req.Password)

		if errors.Is(err, response.ErrUnauthorized) {
			log.Warn("invalid credentials", slog.String("email", req.Email))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "invalid credentials"))
			return
		}

		if err != nil {
			log.Error("Failed to log in", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to log in"))
			return
		}

		log.Info("User logged in", slog.String("email", req.Email))
		render.JSON(w, r, Response{
			LoginResponse: api.LoginResponse{Token: token},
		})
	}
}
