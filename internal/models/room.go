package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Room struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	IsPrivate bool      `gorm:"not null;default:false"`
	CreatedBy uuid.UUID
	CreatedAt time.Time

	// Связи
	Participants []Participant `gorm:"foreignKey:RoomID"`
	Messages     []Message     `gorm:"foreignKey:RoomID"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
