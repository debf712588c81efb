package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant — право пользователя читать и писать в приватной комнате.
// Составной первичный ключ: не больше одной записи на пару (user_id, room_id).
type Participant struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	JoinedAt time.Time

	// Связи
	User User `gorm:"foreignKey:UserID"`
	Room Room `gorm:"foreignKey:RoomID"`
}
