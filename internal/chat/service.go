package chat

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/ruangchat/internal/database"
	"github.com/thereayou/ruangchat/internal/models"
	"gorm.io/gorm"
)

// Publisher рассылает сохраненное сообщение подписчикам комнаты.
// Вызывается строго после успешной записи в базу.
type Publisher interface {
	PublishToRoom(roomID uuid.UUID, message *models.Message)
}

// Service — единственная точка создания сообщений.
// Проверка участника приватной комнаты живет только здесь.
type Service struct {
	db        *database.Database
	publisher Publisher
}

func NewService(db *database.Database, publisher Publisher) *Service {
	return &Service{db: db, publisher: publisher}
}

// SubmitMessage проверяет право пользователя писать в комнату, сохраняет
// сообщение и рассылает его подписчикам. Порядок жесткий: сначала валидация,
// потом запись, потом рассылка — подписчик никогда не увидит сообщение,
// которое не сохранилось.
func (s *Service) SubmitMessage(userID, roomID uuid.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	room, err := s.db.GetRoom(roomID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if _, err := s.db.GetUser(userID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	// Приватная комната: снимок таблицы участников на момент отправки.
	// Отзыв права параллельно с отправкой не откатывает уже начатую запись.
	if room.IsPrivate {
		ok, err := s.db.IsParticipant(userID, roomID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if !ok {
			return nil, ErrForbidden
		}
	}

	message := &models.Message{
		RoomID:    roomID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := s.db.SaveMessage(message); err != nil {
		log.Printf("Failed to save message: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	// Ошибки доставки изолированы внутри Publisher и не откатывают отправку
	if s.publisher != nil {
		s.publisher.PublishToRoom(roomID, message)
	}

	return message, nil
}

// RoomHistory отдает сообщения комнаты в порядке создания, с курсорной
// пагинацией. Отдельный read path для тех, кто подписался позже рассылки.
func (s *Service) RoomHistory(userID, roomID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	room, err := s.db.GetRoom(roomID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if room.IsPrivate {
		ok, err := s.db.IsParticipant(userID, roomID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if !ok {
			return nil, ErrForbidden
		}
	}

	messages, err := s.db.GetRoomMessages(roomID.String(), limit, beforeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return messages, nil
}

// CanAccess сообщает, может ли пользователь подписаться на комнату.
// Для публичных комнат всегда true.
func (s *Service) CanAccess(userID, roomID uuid.UUID) (bool, error) {
	room, err := s.db.GetRoom(roomID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if !room.IsPrivate {
		return true, nil
	}

	ok, err := s.db.IsParticipant(userID, roomID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return ok, nil
}
