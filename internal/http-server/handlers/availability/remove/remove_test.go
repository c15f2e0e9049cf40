package remove

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wassimhassan/backend/internal/auth"
	"github.com/wassimhassan/backend/pkg/middleware/mwAuth"

	"github.com/go-chi/chi/v5"
)

type stubRemover struct {
	calls []string
}

func (s *stubRemover) RemoveAvailabilityDay(_ context.Context, trainerID, day string) error {
	s.calls = append(s.calls, trainerID+"/"+day)
	return nil
}

func doRequest(t *testing.T, remover *stubRemover, callerID, role, targetTrainerID string) *httptest.ResponseRecorder {
	t.Helper()

	tokens := auth.NewManager("test-secret", time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := chi.NewRouter()
	router.Use(mwAuth.New(tokens))
	router.Delete("/availability/{trainerId}/{day}", New(log, remover))

	token, err := tokens.Issue(callerID, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/availability/"+targetTrainerID+"/Monday", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRemove_TrainerOwnDay(t *testing.T) {
	remover := &stubRemover{}

	rec := doRequest(t, remover, "trainer-1", auth.RoleTrainer, "trainer-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	if len(remover.calls) != 1 || remover.calls[0] != "trainer-1/Monday" {
		t.Errorf("unexpected remover calls: %v", remover.calls)
	}
}

func TestRemove_OwnerMayRemoveAnyTrainersDay(t *testing.T) {
	remover := &stubRemover{}

	rec := doRequest(t, remover, "owner-1", auth.RoleOwner, "trainer-9")

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	if len(remover.calls) != 1 {
		t.Errorf("unexpected remover calls: %v", remover.calls)
	}
}

func TestRemove_ForbiddenCallers(t *testing.T) {
	cases := []struct {
		name     string
		callerID string
		role     string
	}{
		{"client", "client-1", auth.RoleClient},
		{"other trainer", "trainer-1", auth.RoleTrainer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			remover := &stubRemover{}

			rec := doRequest(t, remover, tc.callerID, tc.role, "trainer-9")

			if rec.Code != http.StatusForbidden {
				t.Fatalf("want 403, got %d: %s", rec.Code, rec.Body)
			}
			if len(remover.calls) != 0 {
				t.Errorf("remover reached despite forbidden caller: %v", remover.calls)
			}
		})
	}
}
