package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/ruangchat/internal/chat"
	"github.com/thereayou/ruangchat/internal/middleware"
	"github.com/thereayou/ruangchat/internal/models"
)

type HTTPMessageHandler struct {
	service *chat.Service
}

func NewHTTPMessageHandler(service *chat.Service) *HTTPMessageHandler {
	return &HTTPMessageHandler{service: service}
}

// SendMessage отправляет сообщение в комнату. Сообщение уходит
// подписчикам комнаты после сохранения.
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.service.SubmitMessage(userID, roomID, req.Content)
	if err != nil {
		respondChatError(c, err)
		return
	}

	c.JSON(http.StatusCreated, formatMessageResponse(message))
}

// GetRoomMessages получает историю сообщений комнаты
func (h *HTTPMessageHandler) GetRoomMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	// Параметры пагинации
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var beforeID *uuid.UUID
	if before := c.Query("before"); before != "" {
		if id, err := uuid.Parse(before); err == nil {
			beforeID = &id
		}
	}

	messages, err := h.service.RoomHistory(userID, roomID, limit, beforeID)
	if err != nil {
		respondChatError(c, err)
		return
	}

	result := make([]gin.H, len(messages))
	for i, msg := range messages {
		result[i] = formatMessageResponse(&msg)
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": result,
		"has_more": len(messages) == limit,
	})
}

// respondChatError переводит ошибки сервиса в HTTP статусы
func respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrRoomNotFound), errors.Is(err, chat.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable, try again"})
	}
}

// formatMessageResponse форматирует ответ для сообщения
func formatMessageResponse(msg *models.Message) gin.H {
	response := gin.H{
		"id":         msg.ID,
		"room_id":    msg.RoomID,
		"user_id":    msg.UserID,
		"content":    msg.Content,
		"created_at": msg.CreatedAt,
	}

	// Если загружена информация о пользователе
	if msg.User.ID != uuid.Nil {
		response["user"] = gin.H{
			"id":       msg.User.ID,
			"username": msg.User.Username,
		}
	}

	return response
}
