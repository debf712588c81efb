package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/ruangchat/internal/handlers/dto"
	"github.com/thereayou/ruangchat/internal/models"
)

func TestBroadcasterDeliversEnvelope(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	roomID := uuid.New()

	subscriber := newTestClient(8)
	hub.JoinRoom(subscriber, roomID)

	message := &models.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		UserID:    uuid.New(),
		Content:   "hi",
		CreatedAt: time.Now(),
	}

	NewBroadcaster(hub).PublishToRoom(roomID, message)

	data := recvOrTimeout(t, subscriber.Send)

	var envelope Message
	req.NoError(json.Unmarshal(data, &envelope))
	req.Equal(TypeMessage, envelope.Type)
	req.NotNil(envelope.RoomID)
	req.Equal(roomID, *envelope.RoomID)
	req.Equal(message.UserID, envelope.UserID)

	var payload dto.MessageResponse
	req.NoError(json.Unmarshal(envelope.Data, &payload))
	req.Equal(message.ID, payload.ID)
	req.Equal("hi", payload.Content)
}

func TestBroadcasterNoSubscribersIsNoop(t *testing.T) {
	hub := NewHub()

	// Комната без подписчиков: рассылка просто ничего не делает
	NewBroadcaster(hub).PublishToRoom(uuid.New(), &models.Message{
		ID:      uuid.New(),
		Content: "lost",
	})
}
