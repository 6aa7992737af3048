package game

import (
	"context"
	"time"
)

// lobby owns the room registry. A single goroutine (LobbyActor) serializes
// all registry access; rooms and handlers talk to it through channels.
type lobby struct {
	rooms                map[string]Room
	pubRoomsDescriptions map[string]roomDescription

	addAndRunRoomChan chan Room
	removeRoomChan    chan string
	pubGamesReq       chan chan []roomDescription
	roomDescUpdate    chan roomDescription
	roomJoinReqs      chan roomJoinRequest

	idGenerator   UniqueIdGenerator
	tickerCreator PeriodicTickerChannelCreator
}

func NewLobby(idgen UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator) *lobby {
	return &lobby{
		rooms:                map[string]Room{},
		pubRoomsDescriptions: map[string]roomDescription{},
		addAndRunRoomChan:    make(chan Room, 32),
		removeRoomChan:       make(chan string, 32),
		pubGamesReq:          make(chan chan []roomDescription, 256),
		roomDescUpdate:       make(chan roomDescription, 256),
		roomJoinReqs:         make(chan roomJoinRequest, 256),
		idGenerator:          idgen,
		tickerCreator:        tickerCreator,
	}
}

func (l *lobby) RequestUpdateDescription(desc roomDescription) {
	select {
	case l.roomDescUpdate <- desc:
	default:
	}
}

func (l *lobby) RequestAddAndRunRoom(ctx context.Context, r Room) {
	select {
	case l.addAndRunRoomChan <- r:
	case <-ctx.Done():
	}
}

func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest) {
	select {
	case l.roomJoinReqs <- jreq:
	case <-ctx.Done():
	}
}

func (l *lobby) RemoveRoom(roomId string) {
	l.removeRoomChan <- roomId
}

func (l *lobby) GetPublicGames(ctx context.Context) []roomDescription {
	respChan := make(chan []roomDescription, 1)
	select {
	case l.pubGamesReq <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return nil
		}
	case <-ctx.Done():
		return nil
	}
}

func (l *lobby) LobbyActor(started chan struct{}) {
	ticker := l.tickerCreator.Create(time.Second)
	pingTicker := l.tickerCreator.Create(time.Second * 30)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, r := range l.rooms {
				r.Tick(now)
			}
		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}

		case room := <-l.addAndRunRoomChan:
			l.handleAddAndRunRoom(room)

		case roomId := <-l.removeRoomChan:
			l.handleRemoveRoom(roomId)

		case desc := <-l.roomDescUpdate:
			if _, tracked := l.pubRoomsDescriptions[desc.id]; tracked || !desc.private {
				l.pubRoomsDescriptions[desc.id] = desc
			}

		case pubGamesReq := <-l.pubGamesReq:
			l.handleGetPublicRoomsDescription(pubGamesReq)

		case joinReq := <-l.roomJoinReqs:
			l.handleJoinReq(joinReq)
		}
	}
}

func (l *lobby) handleAddAndRunRoom(r Room) {
	id := l.idGenerator.Generate()
	r.SetParentLobby(l)
	r.SetId(id)

	l.rooms[id] = r
	go r.GameLoop()

	rDesc := r.Description()
	if rDesc.private {
		return
	}
	l.pubRoomsDescriptions[id] = rDesc
}

func (l *lobby) handleRemoveRoom(toRemoveId string) {
	room, ok := l.rooms[toRemoveId]
	if !ok {
		return
	}
	delete(l.rooms, toRemoveId)
	delete(l.pubRoomsDescriptions, toRemoveId)
	room.CloseAndRelease()
	l.idGenerator.Dispose(toRemoveId)
}

func (l *lobby) handleGetPublicRoomsDescription(req chan []roomDescription) {
	descs := make([]roomDescription, 0, len(l.pubRoomsDescriptions))
	for _, description := range l.pubRoomsDescriptions {
		descs = append(descs, description)
	}
	req <- descs
}

func (l *lobby) handleJoinReq(joinReq roomJoinRequest) {
	room, ok := l.rooms[joinReq.roomId]
	if !ok {
		joinReq.errChan <- ErrRoomNotFound
		close(joinReq.errChan)
		return
	}
	room.RequestJoin(joinReq)
}
