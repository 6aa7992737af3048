package game

import (
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/time/rate"
)

// player is a connected human. Its two pumps bridge the socket and the
// room actor: ReadPump decodes packets into the room inbox, WritePump
// drains the outbound buffer.
type player struct {
	id          string
	username    string
	rateLimiter *rate.Limiter
	socket      NetworkSession
	inbox       chan []byte
	pingChan    chan struct{}

	roomMu sync.RWMutex
	room   Room

	releaseOnce sync.Once
}

func NewPlayer(id, username string, socket NetworkSession) *player {
	return &player{
		id:          id,
		username:    username,
		rateLimiter: rate.NewLimiter(4, 10),
		socket:      socket,
		inbox:       make(chan []byte, 256),
		pingChan:    make(chan struct{}, 1),
	}
}

func (p *player) Id() string       { return p.id }
func (p *player) Username() string { return p.username }
func (p *player) IsBot() bool      { return false }

func (p *player) SetRoom(r Room) {
	p.roomMu.Lock()
	p.room = r
	p.roomMu.Unlock()
}

func (p *player) currentRoom() Room {
	p.roomMu.RLock()
	defer p.roomMu.RUnlock()
	return p.room
}

// Send queues data for the write pump. A slow consumer loses packets
// rather than blocking the room actor.
func (p *player) Send(data []byte) error {
	select {
	case p.inbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *player) Ping() error {
	select {
	case p.pingChan <- struct{}{}:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// CancelAndRelease stops both pumps and closes the socket. Safe to call
// more than once.
func (p *player) CancelAndRelease() {
	p.releaseOnce.Do(func() {
		close(p.inbox)
		p.socket.Close("")
	})
}

// ReadPump blocks on the socket until it errors, forwarding every decoded
// packet to the room. It asks the room to drop this player on exit.
func (p *player) ReadPump() {
	for {
		data, err := p.socket.Read()
		if err != nil {
			break
		}
		if !p.rateLimiter.Allow() {
			continue
		}

		var packet clientPacket
		if err := json.Unmarshal(data, &packet); err != nil {
			continue
		}

		room := p.currentRoom()
		if room == nil {
			continue
		}
		room.Send(context.Background(), ClientPacketEnvelope{packet: packet, from: p})
	}

	if room := p.currentRoom(); room != nil {
		room.RemoveMe(context.Background(), p)
	}
}

func (p *player) WritePump() {
loop:
	for {
		select {
		case data, ok := <-p.inbox:
			if !ok {
				break loop
			}
			if err := p.socket.Write(data); err != nil {
				break loop
			}
		case <-p.pingChan:
			if err := p.socket.Ping(); err != nil {
				break loop
			}
		}
	}
}

// botPlayer is a seat filled by the room's own policy. It has no socket;
// outbound traffic is discarded and decisions are made inside the room
// actor on ticks.
type botPlayer struct {
	id       string
	username string
}

func newBotPlayer(id, username string) *botPlayer {
	return &botPlayer{id: id, username: username}
}

func (b *botPlayer) Id() string             { return b.id }
func (b *botPlayer) Username() string       { return b.username }
func (b *botPlayer) IsBot() bool            { return true }
func (b *botPlayer) Send(data []byte) error { return nil }
func (b *botPlayer) Ping() error            { return nil }
func (b *botPlayer) SetRoom(r Room)         {}
func (b *botPlayer) CancelAndRelease()      {}
