package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/pkg/response"
	"github.com/wassimhassan/backend/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type UserAuthenticator interface {
	Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error)
}

type Request struct {
	api.LoginRequest
}

type Response struct {
	response.Response
	Token string           `json:"token,omitempty"`
	User  api.UserResponse `json:"user,omitempty"`
}

func New(log *slog.Logger, authenticator UserAuthenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.login.New"

		log := log.With(
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

		auth, err := authenticator.Login(r.Context(), &req.LoginRequest)

		if errors.Is(err, response.ErrUnauthorized) {
			log.Error("invalid credentials", slog.String("email", req.Email))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "invalid email or password"))
			return
		}

		if err != nil {
			log.Error("Failed to log in", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to log in"))
			return
		}

		log.Info("User logged in", slog.String("user_id", auth.User.ID))
		render.JSON(w, r, Response{
			Token: auth.Token,
			User:  auth.User,
		})
	}
}
