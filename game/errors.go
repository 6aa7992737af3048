package game

import "errors"

var (
	ErrRoomNotFound    = errors.New("room-not-found")
	ErrRoomFull        = errors.New("room-full")
	ErrGameStarted     = errors.New("game-already-started")
	ErrPlayersNotReady = errors.New("players-not-ready")
	ErrSendBufferFull  = errors.New("send-buffer-full")
)
