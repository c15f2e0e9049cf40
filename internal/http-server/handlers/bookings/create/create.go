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

type SessionBooker interface {
	BookSession(ctx context.Context, clientID string, req *api.BookSessionRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.BookSessionRequest
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, booker SessionBooker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := mwAuth.Identity(r.Context())
		if !ok || claims.Role != auth.RoleClient {
			log.Error("caller is not a client")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "only clients can book sessions"))
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

		booking, err := booker.BookSession(r.Context(), claims.ID, &req.BookSessionRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid booking request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "trainer id and a valid session time are required"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrSlotNotAvailable) {
			log.Error("trainer is not available at the requested time")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "trainer is not available at the requested time"))
			return
		}

		if errors.Is(err, response.ErrSubscriptionRequired) {
			log.Error("no active subscription")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.SUBSCRIPTION_REQUIRED), "an active subscription is required to book a session"))
			return
		}

		if errors.Is(err, response.ErrBalanceExceeded) {
			log.Error("balance limit exceeded")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.BALANCE_EXCEEDED), "insufficient balance, please pay outstanding fees"))
			return
		}

		if errors.Is(err, response.ErrDuplicateBooking) {
			log.Error("session already booked")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.DUPLICATE_BOOKING), "you have already booked this session"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("slot is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is being booked, try again"))
			return
		}

		if err != nil {
			log.Error("Failed to book session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to book session"))
			return
		}

		log.Info("Session booked", slog.Any("booking", booking))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, booking)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, booking *api.BookingResponse) {
	render.JSON(w, r, Response{
		Booking: *booking,
	})
}
