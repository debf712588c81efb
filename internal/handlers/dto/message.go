package dto

import (
	"time"

	"github.com/google/uuid"
)

// MessagePayload структура для входящих сообщений
type MessagePayload struct {
	Content string `json:"content"`
}

// MessageResponse структура для исходящих сообщений
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type UserInfo struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}
