package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/pkg/response"
	"github.com/wassimhassan/backend/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AvailabilityGetter interface {
	GetAvailability(ctx context.Context, trainerID string) (*api.AvailabilityResponse, error)
}

type Response struct {
	response.Response
	AvailableSlots []api.AvailabilitySlot `json:"availableSlots"`
}

// New serves a trainer's declared slots. Public, no token required.
func New(log *slog.Logger, getter AvailabilityGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		trainerID := chi.URLParam(r, "trainerId")
		if trainerID == "" {
			log.Error("trainerId is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "trainerId is required"))
			return
		}

		availability, err := getter.GetAvailability(r.Context(), trainerID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("no availability for trainer", slog.String("trainer_id", trainerID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "no availability found for this trainer"))
			return
		}

		if err != nil {
			log.Error("Failed to get availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get availability"))
			return
		}

		log.Info("Availability retrieved", slog.String("trainer_id", trainerID))
		render.JSON(w, r, Response{
			AvailableSlots: availability.AvailableSlots,
		})
	}
}
