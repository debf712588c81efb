package handlers

import (
	"encoding/json"
	"log"

	"github.com/thereayou/ruangchat/internal/chat"
	"github.com/thereayou/ruangchat/internal/handlers/dto"
	"github.com/thereayou/ruangchat/internal/websocket"
)

// MessageHandler обрабатывает сообщения WebSocket клиентов: подписку на
// комнаты и отправку текста. Сам ничего не рассылает — рассылка живет
// внутри chat.Service, после сохранения.
type MessageHandler struct {
	service *chat.Service
	hub     *websocket.Hub
}

func NewMessageHandler(service *chat.Service, hub *websocket.Hub) *MessageHandler {
	return &MessageHandler{
		service: service,
		hub:     hub,
	}
}

func (h *MessageHandler) HandleMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeMessage:
		return h.handleTextMessage(client, msg)

	case websocket.TypeRoomJoin:
		return h.handleRoomJoin(client, msg)

	case websocket.TypeRoomLeave:
		return h.handleRoomLeave(client, msg)

	default:
		log.Printf("Unknown message type: %s", msg.Type)
		return nil
	}
}

func (h *MessageHandler) handleTextMessage(client *websocket.Client, msg *websocket.Message) error {
	if msg.RoomID == nil {
		return websocket.ErrInvalidMessage
	}

	var payload dto.MessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return err
	}

	// Вся проверка прав и рассылка — внутри сервиса
	_, err := h.service.SubmitMessage(client.UserID, *msg.RoomID, payload.Content)
	return err
}

// handleRoomJoin подписывает клиента на живые сообщения комнаты.
// Для приватной комнаты — только участникам.
func (h *MessageHandler) handleRoomJoin(client *websocket.Client, msg *websocket.Message) error {
	if msg.RoomID == nil {
		return websocket.ErrInvalidMessage
	}

	ok, err := h.service.CanAccess(client.UserID, *msg.RoomID)
	if err != nil {
		return err
	}
	if !ok {
		return websocket.ErrRoomForbidden
	}

	h.hub.JoinRoom(client, *msg.RoomID)
	return nil
}

func (h *MessageHandler) handleRoomLeave(client *websocket.Client, msg *websocket.Message) error {
	if msg.RoomID == nil {
		return websocket.ErrInvalidMessage
	}

	h.hub.LeaveRoom(client, *msg.RoomID)
	return nil
}
