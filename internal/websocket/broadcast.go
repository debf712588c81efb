package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/ruangchat/internal/handlers/dto"
	"github.com/thereayou/ruangchat/internal/models"
)

// Broadcaster превращает сохраненное сообщение в wire-формат и отдает его
// hub'у. Ошибки доставки сюда не доходят до отправителя: сообщение уже
// в базе, рассылка best-effort.
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func (b *Broadcaster) PublishToRoom(roomID uuid.UUID, message *models.Message) {
	response := dto.MessageResponse{
		ID:        message.ID,
		RoomID:    message.RoomID,
		UserID:    message.UserID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}

	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal message %s: %v", message.ID, err)
		return
	}

	envelope := Message{
		Type:      TypeMessage,
		RoomID:    &roomID,
		UserID:    message.UserID,
		Data:      data,
		Timestamp: time.Now(),
	}

	envelopeData, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("Failed to marshal envelope for message %s: %v", message.ID, err)
		return
	}

	b.hub.SendToRoom(roomID, envelopeData)
}
