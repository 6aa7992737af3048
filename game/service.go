package game

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"

	"coup/shared/random"
)

// RoomSummary is the public listing entry for an open table.
type RoomSummary struct {
	Id           string `json:"id"`
	PlayersCount int    `json:"players_count"`
	MaxPlayers   int    `json:"max_players"`
	Started      bool   `json:"started"`
}

type service struct {
	lobby       *lobby
	userGetter  UserGetter
	resultSaver ResultSaver
	logger      zerolog.Logger
}

func NewService(l *lobby, userGetter UserGetter, resultSaver ResultSaver, logger zerolog.Logger) *service {
	return &service{
		lobby:       l,
		userGetter:  userGetter,
		resultSaver: resultSaver,
		logger:      logger,
	}
}

// CreateRoom opens a new table hosted by the authenticated user and hands
// their connection over to the room's pumps.
func (s *service) CreateRoom(ctx context.Context, playerId string, socket NetworkSession, private bool, maxPlayers int) error {
	user, err := s.userGetter.GetUserById(ctx, playerId)
	if err != nil {
		socket.Close("unknown-error")
		return err
	}

	host := NewPlayer(playerId, user.Username, socket)
	rng := rand.New(rand.NewSource(random.NewSeed()))
	room := NewRoom(host, private, maxPlayers, rng, s.resultSaver, s.logger)
	s.lobby.RequestAddAndRunRoom(ctx, room)

	go host.ReadPump()
	go host.WritePump()
	return nil
}

// JoinRoom seats the user at an existing table. The join is forwarded
// through the lobby so the registry stays single-threaded.
func (s *service) JoinRoom(ctx context.Context, playerId, roomId string, socket NetworkSession) error {
	user, err := s.userGetter.GetUserById(ctx, playerId)
	if err != nil {
		socket.Close("unknown-error")
		return err
	}

	player := NewPlayer(playerId, user.Username, socket)
	jreq := NewRoomJoinRequest(roomId, player)
	s.lobby.ForwardPlayerJoinRequestToRoom(ctx, jreq)

	select {
	case err := <-jreq.errChan:
		if err != nil {
			socket.Close(err.Error())
			return err
		}
	case <-ctx.Done():
		socket.Close("timeout")
		return ctx.Err()
	}

	go player.ReadPump()
	go player.WritePump()
	return nil
}

func (s *service) ListRooms(ctx context.Context) []RoomSummary {
	descs := s.lobby.GetPublicGames(ctx)
	out := make([]RoomSummary, 0, len(descs))
	for _, d := range descs {
		out = append(out, RoomSummary{
			Id:           d.id,
			PlayersCount: d.playersCount,
			MaxPlayers:   d.maxPlayers,
			Started:      d.started,
		})
	}
	return out
}
