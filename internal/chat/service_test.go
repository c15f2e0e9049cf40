package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/internal/models"
	"github.com/wassimhassan/backend/pkg/response"
)

type fakeStore struct {
	messages []models.Message
	nextID   int
	now      time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeStore) CreateMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	f.nextID++
	f.now = f.now.Add(time.Second)

	stored := *msg
	stored.ID = fmt.Sprintf("msg-%d", f.nextID)
	stored.Timestamp = f.now
	f.messages = append(f.messages, stored)

	out := stored
	return &out, nil
}

func (f *fakeStore) ListConversation(_ context.Context, userA, userB string) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if (m.Sender == userA && m.Receiver == userB) || (m.Sender == userB && m.Receiver == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestSendMessage_Validation(t *testing.T) {
	service := NewService(newFakeStore())

	_, err := service.SendMessage(context.Background(), "alice", &api.SendMessageRequest{
		Sender:   "alice",
		Receiver: "bob",
	})
	if !errors.Is(err, response.ErrBadRequest) {
		t.Fatalf("empty text: want ErrBadRequest, got %v", err)
	}

	_, err = service.SendMessage(context.Background(), "alice", &api.SendMessageRequest{
		Sender:   "mallory",
		Receiver: "bob",
		Text:     "hi",
	})
	if !errors.Is(err, response.ErrForbidden) {
		t.Fatalf("spoofed sender: want ErrForbidden, got %v", err)
	}
}

func TestHistory_RoundTripOrdered(t *testing.T) {
	service := NewService(newFakeStore())

	texts := []string{"hey", "you there?", "yes"}
	senders := []string{"alice", "alice", "bob"}
	for i, text := range texts {
		receiver := "bob"
		if senders[i] == "bob" {
			receiver = "alice"
		}
		_, err := service.SendMessage(context.Background(), senders[i], &api.SendMessageRequest{
			Sender:   senders[i],
			Receiver: receiver,
			Text:     text,
		})
		if err != nil {
			t.Fatalf("send %q: %v", text, err)
		}
	}

	// noise from an unrelated pair must not leak in
	if _, err := service.SendMessage(context.Background(), "carol", &api.SendMessageRequest{
		Sender:   "carol",
		Receiver: "alice",
		Text:     "unrelated",
	}); err != nil {
		t.Fatalf("send noise: %v", err)
	}

	// both participant orderings see the same conversation
	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		history, err := service.GetHistory(context.Background(), pair[0], pair[0], pair[1])
		if err != nil {
			t.Fatalf("history %v: %v", pair, err)
		}
		if len(history) != len(texts) {
			t.Fatalf("history %v: want %d messages, got %d", pair, len(texts), len(history))
		}
		for i, msg := range history {
			if msg.Text != texts[i] {
				t.Errorf("history %v: message %d = %q, want %q", pair, i, msg.Text, texts[i])
			}
		}
		for i := 1; i < len(history); i++ {
			if history[i].Timestamp.Before(history[i-1].Timestamp) {
				t.Errorf("history %v: not chronological at %d", pair, i)
			}
		}
	}
}

func TestHistory_NonParticipantForbidden(t *testing.T) {
	service := NewService(newFakeStore())

	_, err := service.GetHistory(context.Background(), "mallory", "alice", "bob")
	if !errors.Is(err, response.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}
