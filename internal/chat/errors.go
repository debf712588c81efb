package chat

import "errors"

var (
	ErrForbidden    = errors.New("user is not a participant of this private room")
	ErrEmptyContent = errors.New("message content is empty")
	ErrRoomNotFound = errors.New("room not found")
	ErrUserNotFound = errors.New("user not found")
	ErrStorage      = errors.New("storage unavailable")
)
