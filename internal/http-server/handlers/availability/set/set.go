package set

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

type AvailabilitySetter interface {
	SetAvailability(ctx context.Context, trainerID string, req *api.SetAvailabilityRequest) (*api.AvailabilityResponse, error)
}

type Request struct {
	api.SetAvailabilityRequest
}

type Response struct {
	response.Response
	Availability api.AvailabilityResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, setter AvailabilitySetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.set.New"

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

		log.Info("Request body decoded", slog.Any("request", req))

		trainerID := req.TrainerID
		if trainerID == "" {
			trainerID = claims.ID
		}

		// Trainers manage their own document; owners may set any trainer's.
		// Everyone else has no business here.
		if claims.Role != auth.RoleOwner && (claims.Role != auth.RoleTrainer || trainerID != claims.ID) {
			log.Error("caller may not set this trainer's availability", slog.String("role", claims.Role))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "you can only set your own availability"))
			return
		}

		availability, err := setter.SetAvailability(r.Context(), trainerID, &req.SetAvailabilityRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid slots", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "trainerId and valid available slots are required"))
			return
		}

		if errors.Is(err, response.ErrForbidden) {
			log.Error("target user is not a trainer")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "availability can only be set for trainers"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("trainer not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "trainer not found"))
			return
		}

		if err != nil {
			log.Error("Failed to set availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to set availability"))
			return
		}

		log.Info("Availability updated", slog.String("trainer_id", trainerID))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, availability)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, availability *api.AvailabilityResponse) {
	render.JSON(w, r, Response{
		Availability: *availability,
	})
}
