package database

import (
	"github.com/thereayou/ruangchat/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreateRoom(room *models.Room) error {
	return d.db.Create(room).Error
}

func (d *Database) GetRoom(id string) (*models.Room, error) {
	var room models.Room
	if err := d.db.First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetUserRooms получает все публичные комнаты и приватные,
// в которых пользователь является участником
func (d *Database) GetUserRooms(userID string) ([]models.Room, error) {
	var rooms []models.Room

	memberOf := d.db.Model(&models.Participant{}).Select("room_id").Where("user_id = ?", userID)

	err := d.db.
		Where("is_private = ? OR id IN (?)", false, memberOf).
		Order("created_at ASC").
		Find(&rooms).Error

	if err != nil {
		return nil, err
	}

	return rooms, nil
}

func (d *Database) DeleteRoom(id string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "room_id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Participant{}, "room_id = ?", id).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Room{}, "id = ?", id).Error
	})
}
