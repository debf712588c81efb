package chat

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/ruangchat/internal/database"
	"github.com/thereayou/ruangchat/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type publishEvent struct {
	roomID  uuid.UUID
	message *models.Message
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishEvent
}

func (p *fakePublisher) PublishToRoom(roomID uuid.UUID, message *models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishEvent{roomID: roomID, message: message})
}

func (p *fakePublisher) published() []publishEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishEvent(nil), p.events...)
}

func newTestDB(t *testing.T) *database.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// Одно соединение, чтобы sqlite не ловил busy под конкурентными тестами
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Room{}, &models.Participant{}, &models.Message{}))

	return database.NewDatabase(db)
}

func seedUser(t *testing.T, db *database.Database, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, db.SaveUser(user))
	return user
}

func seedRoom(t *testing.T, db *database.Database, name string, isPrivate bool, createdBy uuid.UUID) *models.Room {
	t.Helper()
	room := &models.Room{
		Name:      name,
		IsPrivate: isPrivate,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.CreateRoom(room))
	return room
}

func countMessages(t *testing.T, db *database.Database, roomID uuid.UUID) int {
	t.Helper()
	messages, err := db.GetRoomMessages(roomID.String(), 100, nil)
	require.NoError(t, err)
	return len(messages)
}

func TestSubmitMessagePublicRoom(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	publisher := &fakePublisher{}
	service := NewService(db, publisher)

	user := seedUser(t, db, "alice")
	room := seedRoom(t, db, "general", false, user.ID)

	// Публичная комната: никаких записей участников не нужно
	message, err := service.SubmitMessage(user.ID, room.ID, "hello")
	req.NoError(err)
	req.NotEqual(uuid.Nil, message.ID)
	req.Equal("hello", message.Content)
	req.Equal(user.ID, message.UserID)
	req.Equal(room.ID, message.RoomID)
	req.False(message.CreatedAt.IsZero())

	events := publisher.published()
	req.Len(events, 1)
	req.Equal(room.ID, events[0].roomID)
	req.Equal(message.ID, events[0].message.ID)
}

func TestSubmitMessagePrivateRoom(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	publisher := &fakePublisher{}
	service := NewService(db, publisher)

	member := seedUser(t, db, "member")
	outsider := seedUser(t, db, "outsider")
	room := seedRoom(t, db, "secret", true, member.ID)
	req.NoError(db.AddParticipant(member.ID, room.ID))

	message, err := service.SubmitMessage(member.ID, room.ID, "hi")
	req.NoError(err)
	req.Equal("hi", message.Content)
	req.Len(publisher.published(), 1)

	// Не участник: отказ, ни строки в базе, ни рассылки
	_, err = service.SubmitMessage(outsider.ID, room.ID, "hi")
	req.ErrorIs(err, ErrForbidden)
	req.Equal(1, countMessages(t, db, room.ID))
	req.Len(publisher.published(), 1)
}

func TestSubmitMessageRevokedParticipant(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	publisher := &fakePublisher{}
	service := NewService(db, publisher)

	user := seedUser(t, db, "bob")
	room := seedRoom(t, db, "secret", true, user.ID)
	req.NoError(db.AddParticipant(user.ID, room.ID))

	_, err := service.SubmitMessage(user.ID, room.ID, "while member")
	req.NoError(err)

	// Отзыв права действует только на будущие отправки
	req.NoError(db.RemoveParticipant(user.ID, room.ID))

	_, err = service.SubmitMessage(user.ID, room.ID, "after revoke")
	req.ErrorIs(err, ErrForbidden)
	req.Equal(1, countMessages(t, db, room.ID))
}

func TestSubmitMessageEmptyContent(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	publisher := &fakePublisher{}
	service := NewService(db, publisher)

	user := seedUser(t, db, "carol")
	room := seedRoom(t, db, "general", false, user.ID)

	for _, content := range []string{"", "   ", "\t\n"} {
		_, err := service.SubmitMessage(user.ID, room.ID, content)
		req.ErrorIs(err, ErrEmptyContent)
	}

	req.Equal(0, countMessages(t, db, room.ID))
	req.Empty(publisher.published())
}

func TestSubmitMessageContentNotTrimmed(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	service := NewService(db, &fakePublisher{})

	user := seedUser(t, db, "dave")
	room := seedRoom(t, db, "general", false, user.ID)

	// Валидация по trim, но сохраняется ровно то, что прислали
	message, err := service.SubmitMessage(user.ID, room.ID, "  padded  ")
	req.NoError(err)
	req.Equal("  padded  ", message.Content)
}

func TestSubmitMessageUnknownRoomAndUser(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	publisher := &fakePublisher{}
	service := NewService(db, publisher)

	user := seedUser(t, db, "eve")
	room := seedRoom(t, db, "general", false, user.ID)

	_, err := service.SubmitMessage(user.ID, uuid.New(), "hi")
	req.ErrorIs(err, ErrRoomNotFound)

	_, err = service.SubmitMessage(uuid.New(), room.ID, "hi")
	req.ErrorIs(err, ErrUserNotFound)

	req.Empty(publisher.published())
}

func TestSubmitMessageConcurrent(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	publisher := &fakePublisher{}
	service := NewService(db, publisher)

	user := seedUser(t, db, "frank")
	room := seedRoom(t, db, "busy", false, user.ID)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.SubmitMessage(user.ID, room.ID, fmt.Sprintf("msg %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		req.NoError(err)
	}

	// Каждая отправка — своя строка и своя рассылка
	messages, err := db.GetRoomMessages(room.ID.String(), n, nil)
	req.NoError(err)
	req.Len(messages, n)
	req.Len(publisher.published(), n)

	seen := make(map[uuid.UUID]bool)
	for i, msg := range messages {
		req.False(seen[msg.ID])
		seen[msg.ID] = true
		if i > 0 {
			req.False(msg.CreatedAt.Before(messages[i-1].CreatedAt))
		}
	}
}

func TestRoomHistory(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	service := NewService(db, &fakePublisher{})

	user := seedUser(t, db, "grace")
	room := seedRoom(t, db, "general", false, user.ID)

	for i := 0; i < 3; i++ {
		_, err := service.SubmitMessage(user.ID, room.ID, fmt.Sprintf("m%d", i))
		req.NoError(err)
		time.Sleep(2 * time.Millisecond)
	}

	messages, err := service.RoomHistory(user.ID, room.ID, 50, nil)
	req.NoError(err)
	req.Len(messages, 3)

	// Старые сообщения первыми
	req.Equal("m0", messages[0].Content)
	req.Equal("m2", messages[2].Content)
}

func TestRoomHistoryPrivateRoomForbidden(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	service := NewService(db, &fakePublisher{})

	owner := seedUser(t, db, "owner")
	outsider := seedUser(t, db, "stranger")
	room := seedRoom(t, db, "secret", true, owner.ID)
	req.NoError(db.AddParticipant(owner.ID, room.ID))

	_, err := service.RoomHistory(outsider.ID, room.ID, 50, nil)
	req.ErrorIs(err, ErrForbidden)
}

func TestCanAccess(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	service := NewService(db, &fakePublisher{})

	member := seedUser(t, db, "member")
	outsider := seedUser(t, db, "outsider")
	public := seedRoom(t, db, "open", false, member.ID)
	private := seedRoom(t, db, "closed", true, member.ID)
	req.NoError(db.AddParticipant(member.ID, private.ID))

	ok, err := service.CanAccess(outsider.ID, public.ID)
	req.NoError(err)
	req.True(ok)

	ok, err = service.CanAccess(member.ID, private.ID)
	req.NoError(err)
	req.True(ok)

	ok, err = service.CanAccess(outsider.ID, private.ID)
	req.NoError(err)
	req.False(ok)

	_, err = service.CanAccess(member.ID, uuid.New())
	req.ErrorIs(err, ErrRoomNotFound)
}
