package chat

import (
	"context"
	"fmt"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/internal/models"
	"github.com/wassimhassan/backend/pkg/response"
)

type Store interface {
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListConversation(ctx context.Context, userA, userB string) ([]models.Message, error)
}

// Service persists chat messages and serves history. Delivery to live
// connections is the Hub's job; persistence never depends on it.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// SendMessage stores one message. The caller's authenticated identity must
// match the sender field, the spoof-protection shared by the REST and
// realtime paths.
func (s *Service) SendMessage(ctx context.Context, callerID string, req *api.SendMessageRequest) (*api.MessageResponse, error) {
	const op = "chat.SendMessage"

	if req.Sender == "" || req.Receiver == "" || req.Text == "" {
		return nil, fmt.Errorf("%s: sender, receiver and text are required: %w", op, response.ErrBadRequest)
	}

	if req.Sender != callerID {
		return nil, fmt.Errorf("%s: sender mismatch: %w", op, response.ErrForbidden)
	}

	msg, err := s.store.CreateMessage(ctx, &models.Message{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Text:     req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return messageResponse(msg), nil
}

// GetHistory returns every message of the unordered {userA, userB} pair in
// chronological order. Only a participant may read it.
func (s *Service) GetHistory(ctx context.Context, callerID, userA, userB string) ([]*api.MessageResponse, error) {
	const op = "chat.GetHistory"

	if callerID != userA && callerID != userB {
		return nil, fmt.Errorf("%s: not a participant: %w", op, response.ErrForbidden)
	}

	messages, err := s.store.ListConversation(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.MessageResponse, 0, len(messages))
	for i := range messages {
		result = append(result, messageResponse(&messages[i]))
	}

	return result, nil
}

func messageResponse(msg *models.Message) *api.MessageResponse {
	return &api.MessageResponse{
		ID:        msg.ID,
		Sender:    msg.Sender,
		Receiver:  msg.Receiver,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}
}
