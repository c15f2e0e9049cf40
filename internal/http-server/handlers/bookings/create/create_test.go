package create

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/internal/auth"
	"github.com/wassimhassan/backend/pkg/middleware/mwAuth"
	"github.com/wassimhassan/backend/pkg/response"
)

type stubBooker struct {
	err      error
	clientID string
}

func (s *stubBooker) BookSession(_ context.Context, clientID string, req *api.BookSessionRequest) (*api.BookingResponse, error) {
	s.clientID = clientID
	if s.err != nil {
		return nil, s.err
	}
	return &api.BookingResponse{
		ID:          "booking-1",
		TrainerID:   req.TrainerID,
		ClientID:    clientID,
		Status:      "pending",
		SessionCost: req.SessionCost,
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doRequest(t *testing.T, booker *stubBooker, role string, withToken bool) *httptest.ResponseRecorder {
	t.Helper()

	tokens := auth.NewManager("test-secret", time.Hour)
	handler := mwAuth.New(tokens)(New(discardLogger(), booker))

	body, err := json.Marshal(api.BookSessionRequest{
		TrainerID:   "trainer-1",
		SessionTime: "2026-09-07T09:00:00Z",
		SessionCost: 20,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/book-session", bytes.NewReader(body))
	if withToken {
		token, err := tokens.Issue("client-1", role)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreate_Success(t *testing.T) {
	booker := &stubBooker{}

	rec := doRequest(t, booker, auth.RoleClient, true)

	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body)
	}
	if booker.clientID != "client-1" {
		t.Errorf("client id from token not forwarded, got %q", booker.clientID)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Booking.ID != "booking-1" || resp.Booking.Status != "pending" {
		t.Errorf("unexpected booking: %+v", resp.Booking)
	}
}

func TestCreate_NoToken(t *testing.T) {
	rec := doRequest(t, &stubBooker{}, auth.RoleClient, false)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestCreate_TrainerForbidden(t *testing.T) {
	rec := doRequest(t, &stubBooker{}, auth.RoleTrainer, true)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d", rec.Code)
	}
}

func TestCreate_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  response.ErrCode
	}{
		{"bad request", response.ErrBadRequest, http.StatusBadRequest, response.BAD_REQUEST},
		{"not found", response.ErrNotFound, http.StatusNotFound, response.NOT_FOUND},
		{"not available", response.ErrSlotNotAvailable, http.StatusBadRequest, response.SLOT_NOT_AVAILABLE},
		{"no subscription", response.ErrSubscriptionRequired, http.StatusForbidden, response.SUBSCRIPTION_REQUIRED},
		{"balance exceeded", response.ErrBalanceExceeded, http.StatusForbidden, response.BALANCE_EXCEEDED},
		{"duplicate", response.ErrDuplicateBooking, http.StatusBadRequest, response.DUPLICATE_BOOKING},
		{"locked", response.ErrLocked, http.StatusLocked, response.LOCKED},
		{"internal", fmt.Errorf("connection refused"), http.StatusInternalServerError, response.FAILED_REQUEST},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, &stubBooker{err: tc.err}, auth.RoleClient, true)

			if rec.Code != tc.wantCode {
				t.Fatalf("want %d, got %d: %s", tc.wantCode, rec.Code, rec.Body)
			}

			var resp response.Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code != string(tc.wantErr) {
				t.Errorf("want error code %s, got %s", tc.wantErr, resp.Code)
			}
		})
	}
}
