package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/internal/auth"
	"github.com/wassimhassan/backend/internal/chat"
	"github.com/wassimhassan/backend/pkg/response"
	"github.com/wassimhassan/backend/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
)

type MessageSender interface {
	SendMessage(ctx context.Context, callerID string, req *api.SendMessageRequest) (*api.MessageResponse, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// New authenticates the handshake, binds the connection to the identity's
// room and relays chat events. The token is verified before the upgrade;
// unauthenticated connections never reach the read loop.
func New(log *slog.Logger, tokens *auth.Manager, hub *chat.Hub, sender MessageSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.ws.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			log.Error("handshake rejected", sl.Err(err))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "invalid or missing token"))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade connection", sl.Err(err))
			return
		}

		log = log.With(slog.String("user_id", claims.ID))
		log.Info("Client connected")

		client := chat.NewClient(conn)
		hub.Join(claims.ID, client)
		go client.Run()

		defer func() {
			hub.Leave(claims.ID, client)
			_ = client.Close()
			log.Info("Client disconnected")
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error("Unexpected close", sl.Err(err))
				}
				return
			}

			var event chat.InEvent
			if err := json.Unmarshal(data, &event); err != nil {
				log.Error("Failed to decode event", sl.Err(err))
				continue
			}

			if event.Event != chat.EventSendMessage {
				continue
			}

			var req api.SendMessageRequest
			if err := json.Unmarshal(event.Data, &req); err != nil {
				log.Error("Failed to decode message payload", sl.Err(err))
				continue
			}

			// Spoofed sender: drop without acknowledgement.
			if req.Sender != claims.ID {
				log.Warn("Dropping message with mismatched sender", slog.String("sender", req.Sender))
				continue
			}

			message, err := sender.SendMessage(r.Context(), claims.ID, &req)
			if err != nil {
				log.Error("Failed to persist message", sl.Err(err))
				continue
			}

			// Fan out to both participants' rooms; the sender's other
			// devices see their own message too.
			hub.Deliver(message.Receiver, chat.EventReceiveMessage, message)
			hub.Deliver(message.Sender, chat.EventReceiveMessage, message)
		}
	}
}
