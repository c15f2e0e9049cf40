package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/pkg/middleware/mwAuth"
	"github.com/wassimhassan/backend/pkg/response"
	"github.com/wassimhassan/backend/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type BookingLister interface {
	ListBookings(ctx context.Context, clientID string) ([]*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Bookings []api.BookingResponse `json:"bookings"`
}

func New(log *slog.Logger, lister BookingLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.get.New"

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

		bookings, err := lister.ListBookings(r.Context(), claims.ID)
		if err != nil {
			log.Error("Failed to list bookings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list bookings"))
			return
		}

		log.Info("Bookings retrieved", slog.Int("count", len(bookings)))

		bookingsResponse := make([]api.BookingResponse, len(bookings))
		for i, b := range bookings {
			bookingsResponse[i] = *b
		}
		render.JSON(w, r, Response{
			Bookings: bookingsResponse,
		})
	}
}
