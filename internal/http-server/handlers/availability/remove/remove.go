package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wassimhassan/backend/internal/auth"
	"github.com/wassimhassan/backend/pkg/middleware/mwAuth"
	"github.com/wassimhassan/backend/pkg/response"
	"github.com/wassimhassan/backend/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type DayRemover interface {
	RemoveAvailabilityDay(ctx context.Context, trainerID, day string) error
}

type Response struct {
	response.Response
	Removed string `json:"removed,omitempty"`
}

func New(log *slog.Logger, remover DayRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.remove.New"

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

		trainerID := chi.URLParam(r, "trainerId")
		day := chi.URLParam(r, "day")
		if trainerID == "" || day == "" {
			log.Error("trainerId or day is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "trainerId and day are required"))
			return
		}

		if claims.Role != auth.RoleOwner && (claims.Role != auth.RoleTrainer || trainerID != claims.ID) {
			log.Error("caller may not edit this trainer's availability", slog.String("role", claims.Role))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "you can only edit your own availability"))
			return
		}

		err := remover.RemoveAvailabilityDay(r.Context(), trainerID, day)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("no availability for day", slog.String("day", day))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "no availability found for this day"))
			return
		}

		if err != nil {
			log.Error("Failed to remove availability day", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to remove availability"))
			return
		}

		log.Info("Availability day removed", slog.String("trainer_id", trainerID), slog.String("day", day))
		render.JSON(w, r, Response{Removed: day})
	}
}
