package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/ruangchat/internal/chat"
	"github.com/thereayou/ruangchat/internal/database"
	"github.com/thereayou/ruangchat/internal/handlers/dto"
	"github.com/thereayou/ruangchat/internal/models"
	ws "github.com/thereayou/ruangchat/internal/websocket"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type handlerFixture struct {
	db      *database.Database
	hub     *ws.Hub
	handler *MessageHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gormDB.AutoMigrate(&models.User{}, &models.Room{}, &models.Participant{}, &models.Message{}))

	db := database.NewDatabase(gormDB)
	hub := ws.NewHub()
	service := chat.NewService(db, ws.NewBroadcaster(hub))

	return &handlerFixture{
		db:      db,
		hub:     hub,
		handler: NewMessageHandler(service, hub),
	}
}

func (f *handlerFixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.db.SaveUser(user))
	return user
}

func (f *handlerFixture) room(t *testing.T, name string, isPrivate bool, createdBy uuid.UUID) *models.Room {
	t.Helper()
	room := &models.Room{
		Name:      name,
		IsPrivate: isPrivate,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.db.CreateRoom(room))
	return room
}

func testClient(userID uuid.UUID) *ws.Client {
	return &ws.Client{
		ID:     uuid.New(),
		UserID: userID,
		Send:   make(chan []byte, 16),
		Rooms:  make(map[uuid.UUID]bool),
	}
}

func joinMsg(roomID uuid.UUID) *ws.Message {
	return &ws.Message{Type: ws.TypeRoomJoin, RoomID: &roomID}
}

func textMsg(roomID uuid.UUID, content string) *ws.Message {
	data, _ := json.Marshal(dto.MessagePayload{Content: content})
	return &ws.Message{Type: ws.TypeMessage, RoomID: &roomID, Data: data}
}

func receiveContent(t *testing.T, client *ws.Client) string {
	t.Helper()
	select {
	case data := <-client.Send:
		var envelope ws.Message
		require.NoError(t, json.Unmarshal(data, &envelope))
		require.Equal(t, ws.TypeMessage, envelope.Type)

		var payload dto.MessageResponse
		require.NoError(t, json.Unmarshal(envelope.Data, &payload))
		return payload.Content
	case <-time.After(time.Second):
		t.Fatalf("no message received in time")
		return ""
	}
}

func TestSubscribeThenReceiveThenLeave(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	author := f.user(t, "author")
	subscriber := f.user(t, "subscriber")
	room := f.room(t, "general", false, author.ID)

	client := testClient(subscriber.ID)
	req.NoError(f.handler.HandleMessage(client, joinMsg(room.ID)))
	req.True(client.IsInRoom(room.ID))

	authorClient := testClient(author.ID)
	req.NoError(f.handler.HandleMessage(authorClient, textMsg(room.ID, "x")))
	req.Equal("x", receiveContent(t, client))

	// После отписки сообщения больше не приходят
	req.NoError(f.handler.HandleMessage(client, &ws.Message{Type: ws.TypeRoomLeave, RoomID: &room.ID}))
	req.NoError(f.handler.HandleMessage(authorClient, textMsg(room.ID, "y")))
	req.Empty(client.Send)
}

func TestJoinPrivateRoomRequiresParticipant(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	owner := f.user(t, "owner")
	outsider := f.user(t, "outsider")
	room := f.room(t, "secret", true, owner.ID)
	req.NoError(f.db.AddParticipant(owner.ID, room.ID))

	outsiderClient := testClient(outsider.ID)
	err := f.handler.HandleMessage(outsiderClient, joinMsg(room.ID))
	req.ErrorIs(err, ws.ErrRoomForbidden)
	req.False(outsiderClient.IsInRoom(room.ID))

	ownerClient := testClient(owner.ID)
	req.NoError(f.handler.HandleMessage(ownerClient, joinMsg(room.ID)))
	req.True(ownerClient.IsInRoom(room.ID))
}

func TestPrivateRoomSubmitForbiddenNoBroadcast(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	member := f.user(t, "member")
	outsider := f.user(t, "outsider")
	room := f.room(t, "secret", true, member.ID)
	req.NoError(f.db.AddParticipant(member.ID, room.ID))

	memberClient := testClient(member.ID)
	req.NoError(f.handler.HandleMessage(memberClient, joinMsg(room.ID)))

	outsiderClient := testClient(outsider.ID)
	err := f.handler.HandleMessage(outsiderClient, textMsg(room.ID, "hi"))
	req.ErrorIs(err, chat.ErrForbidden)

	// Ни строки, ни рассылки
	req.Empty(memberClient.Send)
	messages, err := f.db.GetRoomMessages(room.ID.String(), 10, nil)
	req.NoError(err)
	req.Empty(messages)

	req.NoError(f.handler.HandleMessage(memberClient, textMsg(room.ID, "hi")))
	req.Equal("hi", receiveContent(t, memberClient))
}

func TestHandleMessageValidation(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	user := f.user(t, "user")
	room := f.room(t, "general", false, user.ID)
	client := testClient(user.ID)

	// Сообщение без комнаты
	err := f.handler.HandleMessage(client, &ws.Message{Type: ws.TypeMessage})
	req.ErrorIs(err, ws.ErrInvalidMessage)

	// Подписка без комнаты
	err = f.handler.HandleMessage(client, &ws.Message{Type: ws.TypeRoomJoin})
	req.ErrorIs(err, ws.ErrInvalidMessage)

	// Пустой текст
	err = f.handler.HandleMessage(client, textMsg(room.ID, "   "))
	req.ErrorIs(err, chat.ErrEmptyContent)

	// Неизвестный тип игнорируется
	req.NoError(f.handler.HandleMessage(client, &ws.Message{Type: "unknown"}))
}
