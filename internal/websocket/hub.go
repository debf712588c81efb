package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageType определяет типы сообщений
type MessageType string

const (
	// Системные типы
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"

	// Новое сообщение в комнате
	TypeMessage MessageType = "message"

	// Подписка на комнату
	TypeRoomJoin  MessageType = "room_join"
	TypeRoomLeave MessageType = "room_leave"
)

type Message struct {
	Type      MessageType     `json:"type"`
	RoomID    *uuid.UUID      `json:"room_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub держит множество подписчиков по комнатам и рассылает им
// новые сообщения. Комнаты независимы: общий lock защищает только
// сами map'ы, рассылка в одну комнату не ждет другую.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Подписчики по комнатам: roomID -> clientID -> client
	rooms map[uuid.UUID]map[uuid.UUID]*Client

	// Каналы для регистрации/отмены регистрации
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister отменяет регистрацию клиента
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)
}

// unregisterClient снимает клиента со всех комнат. Единственный путь
// освобождения подписки: вызывается при любом завершении соединения.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		for roomID := range client.Rooms {
			h.removeFromRoomUnsafe(client, roomID)
		}

		delete(h.clients, client.ID)
		close(client.Send)

		log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
	}
}

// JoinRoom подписывает клиента на комнату. Клиент получает только
// сообщения, опубликованные после подписки.
func (h *Hub) JoinRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}

	h.rooms[roomID][client.ID] = client
	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()
}

// LeaveRoom снимает подписку клиента на комнату
func (h *Hub) LeaveRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID uuid.UUID) {
	if room, ok := h.rooms[roomID]; ok {
		if _, ok := room[client.ID]; ok {
			delete(room, client.ID)
			client.mu.Lock()
			delete(client.Rooms, roomID)
			client.mu.Unlock()

			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// SendToRoom доставляет data всем текущим подписчикам комнаты.
// Запись в канал клиента неблокирующая: медленный или мертвый
// подписчик теряет сообщение, остальные получают свое.
func (h *Hub) SendToRoom(roomID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			select {
			case client.Send <- data:
			default:
				log.Printf("Client %s send channel full, message dropped", client.ID)
			}
		}
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Message{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// GetRoomUsers возвращает список пользователей, подписанных на комнату
func (h *Hub) GetRoomUsers(roomID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userMap := make(map[uuid.UUID]bool)
	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			userMap[client.UserID] = true
		}
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}
