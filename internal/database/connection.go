package database

import (
	"errors"
	"os"

	"github.com/thereayou/ruangchat/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func (d *Database) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	err = db.AutoMigrate(&models.User{}, &models.Room{}, &models.Participant{}, &models.Message{})
	if err != nil {
		return err
	}

	d.db = db

	return nil
}
