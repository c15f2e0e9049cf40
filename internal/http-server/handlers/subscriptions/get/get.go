package get

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

type SubscriptionGetter interface {
	GetSubscription(ctx context.Context, clientID string) (*api.SubscriptionResponse, error)
}

type Response struct {
	response.Response
	Subscription api.SubscriptionResponse `json:"subscription,omitempty"`
}

func New(log *slog.Logger, getter SubscriptionGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscriptions.get.New"

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

		subscription, err := getter.GetSubscription(r.Context(), claims.ID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("no active subscription")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "no active subscription"))
			return
		}

		if err != nil {
			log.Error("Failed to get subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get subscription"))
			return
		}

		log.Info("Subscription retrieved", slog.Any("subscription", subscription))
		render.JSON(w, r, Response{
			Subscription: *subscription,
		})
	}
}
