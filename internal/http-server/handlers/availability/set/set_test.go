package set

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/internal/auth"
	"github.com/wassimhassan/backend/pkg/middleware/mwAuth"

	"github.com/go-chi/chi/middleware"
)

type stubSetter struct {
	calls []string
}

func (s *stubSetter) SetAvailability(_ context.Context, trainerID string, req *api.SetAvailabilityRequest) (*api.AvailabilityResponse, error) {
	s.calls = append(s.calls, trainerID)
	return &api.AvailabilityResponse{
		TrainerID:      trainerID,
		AvailableSlots: req.AvailableSlots,
	}, nil
}

func doRequest(t *testing.T, log *slog.Logger, setter *stubSetter, callerID, role, targetTrainerID string) *httptest.ResponseRecorder {
	t.Helper()

	tokens := auth.NewManager("test-secret", time.Hour)
	handler := middleware.RequestID(mwAuth.New(tokens)(New(log, setter)))

	body, err := json.Marshal(api.SetAvailabilityRequest{
		TrainerID: targetTrainerID,
		AvailableSlots: []api.AvailabilitySlot{
			{Day: "Monday", Time: []string{"2026-09-07T09:00:00Z"}},
		},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	token, err := tokens.Issue(callerID, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/availability", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSet_TrainerOwnDocument(t *testing.T) {
	setter := &stubSetter{}

	rec := doRequest(t, discardLogger(), setter, "trainer-1", auth.RoleTrainer, "trainer-1")

	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body)
	}
	if len(setter.calls) != 1 || setter.calls[0] != "trainer-1" {
		t.Errorf("unexpected setter calls: %v", setter.calls)
	}
}

func TestSet_TrainerIDDefaultsToCaller(t *testing.T) {
	setter := &stubSetter{}

	rec := doRequest(t, discardLogger(), setter, "trainer-1", auth.RoleTrainer, "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body)
	}
	if len(setter.calls) != 1 || setter.calls[0] != "trainer-1" {
		t.Errorf("unexpected setter calls: %v", setter.calls)
	}
}

func TestSet_OwnerMaySetAnyTrainer(t *testing.T) {
	setter := &stubSetter{}

	rec := doRequest(t, discardLogger(), setter, "owner-1", auth.RoleOwner, "trainer-9")

	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body)
	}
	if len(setter.calls) != 1 || setter.calls[0] != "trainer-9" {
		t.Errorf("unexpected setter calls: %v", setter.calls)
	}
}

func TestSet_ForbiddenCallers(t *testing.T) {
	cases := []struct {
		name     string
		callerID string
		role     string
		target   string
	}{
		{"client targeting a trainer", "client-1", auth.RoleClient, "trainer-9"},
		{"client targeting itself", "client-1", auth.RoleClient, ""},
		{"trainer targeting another trainer", "trainer-1", auth.RoleTrainer, "trainer-9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setter := &stubSetter{}

			rec := doRequest(t, discardLogger(), setter, tc.callerID, tc.role, tc.target)

			if rec.Code != http.StatusForbidden {
				t.Fatalf("want 403, got %d: %s", rec.Code, rec.Body)
			}
			if len(setter.calls) != 0 {
				t.Errorf("setter reached despite forbidden caller: %v", setter.calls)
			}
		})
	}
}

func TestSet_LogAttrsAreRequestScoped(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	setter := &stubSetter{}

	// two requests through the same handler closure; attributes from the
	// first must not leak into the second's lines
	doRequest(t, log, setter, "trainer-1", auth.RoleTrainer, "trainer-1")
	doRequest(t, log, setter, "trainer-1", auth.RoleTrainer, "trainer-1")

	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Count(line, "request_id=") > 1 {
			t.Fatalf("accumulated request attributes: %s", line)
		}
	}
}
