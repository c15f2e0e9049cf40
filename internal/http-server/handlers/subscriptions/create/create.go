package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/internal/auth"
	"github.com/wassimhassan/backend/pkg/middleware/mwAuth"
	"github.com/wassimhassan/backend/pkg/response"
	"github.com/wassimhassan/backend/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type SubscriptionCreator interface {
	CreateSubscription(ctx context.Context, clientID string, req *api.SubscriptionRequest) (*api.SubscriptionResponse, error)
}

type Request struct {
	api.SubscriptionRequest
}

type Response struct {
	response.Response
	Subscription api.SubscriptionResponse `json:"subscription,omitempty"`
}

func New(log *slog.Logger, creator SubscriptionCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscriptions.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := mwAuth.Identity(r.Context())
		if !ok || claims.Role != auth.RoleClient {
			log.Error("caller is not a client")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "only clients can subscribe"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		subscription, err := creator.CreateSubscription(r.Context(), claims.ID, &req.SubscriptionRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid plan type", slog.String("plan_type", req.PlanType))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "planType must be basic, premium or pro"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("client not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "client not found"))
			return
		}

		if err != nil {
			log.Error("Failed to create subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create subscription"))
			return
		}

		log.Info("Subscription created", slog.Any("subscription", subscription))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, subscription)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, subscription *api.SubscriptionResponse) {
	render.JSON(w, r, Response{
		Subscription: *subscription,
	})
}
