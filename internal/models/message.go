package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message неизменяемо после создания: room_id, user_id и content не меняются,
// редактирования и удаления нет.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_room_created,priority:1"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"index:idx_messages_room_created,priority:2"`

	// Связи
	User User `gorm:"foreignKey:UserID"`
	Room Room `gorm:"foreignKey:RoomID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
