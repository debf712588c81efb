package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrRoomForbidden   = errors.New("no access to this room")
)
