package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/ruangchat/internal/database"
	"github.com/thereayou/ruangchat/internal/middleware"
	"github.com/thereayou/ruangchat/internal/models"
	"github.com/thereayou/ruangchat/internal/websocket"
)

type RoomHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewRoomHandler(db *database.Database, hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{db: db, hub: hub}
}

// CreateRoom создает новую комнату. Создатель приватной комнаты
// сразу становится ее участником.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name      string `json:"name" binding:"required"`
		IsPrivate bool   `json:"is_private"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room := &models.Room{
		Name:      req.Name,
		IsPrivate: req.IsPrivate,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}

	if err := h.db.CreateRoom(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	if room.IsPrivate {
		if err := h.db.AddParticipant(userID, room.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add creator to room"})
			return
		}
	}

	c.JSON(http.StatusCreated, formatRoomResponse(room))
}

// GetMyRooms получает список комнат, доступных пользователю
func (h *RoomHandler) GetMyRooms(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	rooms, err := h.db.GetUserRooms(userID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rooms"})
		return
	}

	roomsResponse := make([]gin.H, len(rooms))
	for i, room := range rooms {
		roomResponse := formatRoomResponse(&room)

		// Количество подписчиков комнаты онлайн
		roomResponse["online_count"] = len(h.hub.GetRoomUsers(room.ID))

		roomsResponse[i] = roomResponse
	}

	c.JSON(http.StatusOK, gin.H{"rooms": roomsResponse})
}

// GetRoom получает информацию о конкретной комнате
func (h *RoomHandler) GetRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	room, ok := h.roomWithAccess(c, userID)
	if !ok {
		return
	}

	response := formatRoomResponse(room)
	response["online_users"] = h.hub.GetRoomUsers(room.ID)

	c.JSON(http.StatusOK, response)
}

// DeleteRoom удаляет комнату вместе с сообщениями и участниками
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	// Только создатель может удалить комнату
	if room.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only room creator can delete room"})
		return
	}

	if err := h.db.DeleteRoom(roomID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "room deleted successfully"})
}

// AddParticipant выдает пользователю доступ к приватной комнате.
// Доступ выдает только создатель комнаты.
func (h *RoomHandler) AddParticipant(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if !room.IsPrivate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room is not private"})
		return
	}

	if room.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only room creator can add participants"})
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if _, err := h.db.GetUser(targetUserID.String()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := h.db.AddParticipant(targetUserID, room.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add participant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "participant added"})
}

// RemoveParticipant отзывает доступ к приватной комнате.
// Участник может выйти сам, создатель может убрать любого.
func (h *RoomHandler) RemoveParticipant(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	targetUserID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if targetUserID != userID && room.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only room creator can remove other participants"})
		return
	}

	if err := h.db.RemoveParticipant(targetUserID, room.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove participant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "participant removed"})
}

// GetRoomParticipants получает список участников приватной комнаты
func (h *RoomHandler) GetRoomParticipants(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	room, ok := h.roomWithAccess(c, userID)
	if !ok {
		return
	}

	participants, err := h.db.GetRoomParticipants(room.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get participants"})
		return
	}

	onlineUsers := h.hub.GetRoomUsers(room.ID)

	result := make([]gin.H, len(participants))
	for i, p := range participants {
		isOnline := false
		for _, onlineID := range onlineUsers {
			if onlineID == p.UserID {
				isOnline = true
				break
			}
		}

		result[i] = gin.H{
			"user_id":    p.UserID,
			"username":   p.User.Username,
			"joined_at":  p.JoinedAt,
			"is_online":  isOnline,
			"is_creator": p.UserID == room.CreatedBy,
		}
	}

	c.JSON(http.StatusOK, gin.H{"participants": result})
}

// roomWithAccess загружает комнату и проверяет, что пользователь имеет
// к ней доступ. Ответ с ошибкой уже записан, если вернулось false.
func (h *RoomHandler) roomWithAccess(c *gin.Context, userID uuid.UUID) (*models.Room, bool) {
	room, err := h.db.GetRoom(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}

	if room.IsPrivate {
		ok, err := h.db.IsParticipant(userID, room.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check access"})
			return nil, false
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "you are not a participant of this room"})
			return nil, false
		}
	}

	return room, true
}

// formatRoomResponse форматирует ответ для комнаты
func formatRoomResponse(room *models.Room) gin.H {
	return gin.H{
		"id":         room.ID,
		"name":       room.Name,
		"is_private": room.IsPrivate,
		"created_by": room.CreatedBy,
		"created_at": room.CreatedAt,
	}
}
