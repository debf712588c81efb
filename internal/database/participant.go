package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/ruangchat/internal/models"
	"gorm.io/gorm/clause"
)

// AddParticipant выдает пользователю право писать и читать в комнате.
// Повторное добавление той же пары — no-op.
func (d *Database) AddParticipant(userID, roomID uuid.UUID) error {
	participant := models.Participant{
		UserID:   userID,
		RoomID:   roomID,
		JoinedAt: time.Now(),
	}

	return d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&participant).Error
}

// RemoveParticipant отзывает право только на будущее:
// уже сохраненные сообщения не трогаем
func (d *Database) RemoveParticipant(userID, roomID uuid.UUID) error {
	return d.db.Delete(&models.Participant{}, "user_id = ? AND room_id = ?", userID, roomID).Error
}

// IsParticipant проверяет, есть ли запись для пары (user, room).
// Чистый запрос без побочных эффектов, безопасен для конкурентных вызовов.
func (d *Database) IsParticipant(userID, roomID uuid.UUID) (bool, error) {
	var count int64

	err := d.db.Model(&models.Participant{}).
		Where("user_id = ? AND room_id = ?", userID, roomID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (d *Database) GetRoomParticipants(roomID uuid.UUID) ([]models.Participant, error) {
	var participants []models.Participant

	err := d.db.
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Preload("User").
		Find(&participants).Error

	if err != nil {
		return nil, err
	}

	return participants, nil
}
