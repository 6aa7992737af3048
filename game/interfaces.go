package game

import (
	"context"
	"time"

	"coup/domain"
)

// NetworkSession is the transport a player talks through. The websocket
// adapter implements it; tests substitute a mock.
type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// Player is one participant the room can push packets to. Humans wrap a
// NetworkSession; bots satisfy the same interface without one.
type Player interface {
	Id() string
	Username() string
	IsBot() bool
	Send(data []byte) error
	Ping() error
	SetRoom(r Room)
	CancelAndRelease()
}

// Room is a single table running one game, driven by its own goroutine.
type Room interface {
	Send(ctx context.Context, e ClientPacketEnvelope)
	RequestJoin(jreq roomJoinRequest)
	RemoveMe(ctx context.Context, p Player)
	Tick(now time.Time)
	PingPlayers()
	GameLoop()
	CloseAndRelease()
	Description() roomDescription
	SetParentLobby(l Lobby)
	SetId(id string)
}

// Lobby owns the room registry.
type Lobby interface {
	RequestAddAndRunRoom(ctx context.Context, r Room)
	ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest)
	RequestUpdateDescription(desc roomDescription)
	RemoveRoom(roomId string)
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

type UserGetter interface {
	GetUserById(ctx context.Context, id string) (domain.User, error)
}

// ResultSaver persists per-player outcomes once a game finishes.
type ResultSaver interface {
	SaveResult(ctx context.Context, res domain.GameResult) error
}

// HistoryGetter reads finished games back for a player's profile.
type HistoryGetter interface {
	GetHistory(ctx context.Context, userId string, limit int) ([]domain.GameHistoryEntry, error)
}
