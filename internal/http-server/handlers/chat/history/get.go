package history

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/pkg/middleware/mwAuth"
	"github.com/wassimhassan/backend/pkg/response"
	"github.com/wassimhassan/backend/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type HistoryGetter interface {
	GetHistory(ctx context.Context, callerID, userA, userB string) ([]*api.MessageResponse, error)
}

type Response struct {
	response.Response
	Messages []api.MessageResponse `json:"messages"`
}

func New(log *slog.Logger, getter HistoryGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.history.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := mwAuth.Identity(r.Context())
		if !ok {
			log.Error("no identity in context")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "access denied"))
			return
		}

		userA := chi.URLParam(r, "userA")
		userB := chi.URLParam(r, "userB")
		if userA == "" || userB == "" {
			log.Error("participant ids are empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "both participant ids are required"))
			return
		}

		messages, err := getter.GetHistory(r.Context(), claims.ID, userA, userB)

		if errors.Is(err, response.ErrForbidden) {
			log.Error("caller is not a participant")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "you are not a participant in this chat"))
			return
		}

		if err != nil {
			log.Error("Failed to get chat history", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get chat history"))
			return
		}

		log.Info("Chat history retrieved", slog.Int("count", len(messages)))

		messagesResponse := make([]api.MessageResponse, len(messages))
		for i, m := range messages {
			messagesResponse[i] = *m
		}
		render.JSON(w, r, Response{
			Messages: messagesResponse,
		})
	}
}
