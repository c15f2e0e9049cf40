package send

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
	"github.com/go-chi/render"
)

type MessageSender interface {
	SendMessage(ctx context.Context, callerID string, req *api.SendMessageRequest) (*api.MessageResponse, error)
}

type Request struct {
	api.SendMessageRequest
}

type Response struct {
	response.Response
	Message api.MessageResponse `json:"data,omitempty"`
}

// New handles the offline send path. It shares the persistence contract with
// the realtime relay but performs no delivery to connected receivers.
func New(log *slog.Logger, sender MessageSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.send.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		message, err := sender.SendMessage(r.Context(), claims.ID, &req.SendMessageRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid message")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "sender, receiver and text are required"))
			return
		}

		if errors.Is(err, response.ErrForbidden) {
			log.Error("sender mismatch")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "access denied, sender mismatch"))
			return
		}

		if err != nil {
			log.Error("Failed to send message", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to send message"))
			return
		}

		log.Info("Message sent", slog.String("message_id", message.ID))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, message)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, message *api.MessageResponse) {
	render.JSON(w, r, Response{
		Message: *message,
	})
}
