package game

import (
	"encoding/json"

	"coup/engine"
)

// Wire format is JSON, one packet per websocket message, discriminated by
// the Type field.

const (
	// client -> server
	PacketAddBot       = "add_bot"
	PacketReady        = "ready"
	PacketStartGame    = "start_game"
	PacketAction       = "action"
	PacketChallenge    = "challenge"
	PacketBlock        = "block"
	PacketPass         = "pass"
	PacketReveal       = "reveal"
	PacketExchangeKeep = "exchange_keep"
	PacketChat         = "chat"

	// server -> client
	PacketRoomSnapshot = "room_snapshot"
	PacketPlayerJoined = "player_joined"
	PacketPlayerReady  = "player_ready"
	PacketPlayerLeft   = "player_left"
	PacketGameStarted  = "game_started"
	PacketState        = "state"
	PacketGameOver     = "game_over"
	PacketError        = "error"
)

type clientPacket struct {
	Type      string             `json:"type"`
	Action    engine.ActionType  `json:"action,omitempty"`
	TargetID  string             `json:"target_id,omitempty"`
	Claim     engine.Character   `json:"claim,omitempty"`
	CardIndex int                `json:"card_index,omitempty"`
	Kept      []engine.Character `json:"kept,omitempty"`
	Ready     bool               `json:"ready,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// ClientPacketEnvelope pairs a decoded packet with its sender for the room
// inbox.
type ClientPacketEnvelope struct {
	packet clientPacket
	from   Player
}

type seatView struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	IsBot    bool   `json:"is_bot"`
	Ready    bool   `json:"ready"`
}

type playerView struct {
	Id        string             `json:"id"`
	Username  string             `json:"username"`
	Coins     int                `json:"coins"`
	Influence int                `json:"influence"`
	Alive     bool               `json:"alive"`
	Revealed  []engine.Character `json:"revealed"`
	// Cards is populated only in the view sent to the owning player.
	Cards []engine.Character `json:"cards,omitempty"`
}

type pendingActionView struct {
	Type             engine.ActionType `json:"type"`
	ActorID          string            `json:"actor_id"`
	TargetID         string            `json:"target_id,omitempty"`
	ClaimedCharacter engine.Character  `json:"claimed_character,omitempty"`
}

type pendingBlockView struct {
	BlockerID        string           `json:"blocker_id"`
	ClaimedCharacter engine.Character `json:"claimed_character"`
}

// stateView is one player's redacted picture of the game. Hidden cards and
// exchange options never leave the server for anyone else.
type stateView struct {
	Players          []playerView       `json:"players"`
	CurrentPlayerID  string             `json:"current_player_id"`
	Phase            engine.Phase       `json:"phase"`
	DeckCount        int                `json:"deck_count"`
	PendingAction    *pendingActionView `json:"pending_action,omitempty"`
	PendingBlock     *pendingBlockView  `json:"pending_block,omitempty"`
	ExchangeOptions  []engine.Character `json:"exchange_options,omitempty"`
	AwaitingRevealBy string             `json:"awaiting_reveal_by,omitempty"`
	ResponderIDs     []string           `json:"responder_ids,omitempty"`
	WinnerID         string             `json:"winner_id,omitempty"`
	Log              []string           `json:"log"`
}

type serverPacket struct {
	Type     string     `json:"type"`
	RoomID   string     `json:"room_id,omitempty"`
	HostID   string     `json:"host_id,omitempty"`
	Seats    []seatView `json:"seats,omitempty"`
	Started  bool       `json:"started,omitempty"`
	State    *stateView `json:"state,omitempty"`
	Username string     `json:"username,omitempty"`
	Ready    bool       `json:"ready,omitempty"`
	WinnerID string     `json:"winner_id,omitempty"`
	Code     string     `json:"code,omitempty"`
	From     string     `json:"from,omitempty"`
	Message  string     `json:"message,omitempty"`
}

func marshalServerPacket(p *serverPacket) []byte {
	data, err := json.Marshal(p)
	if err != nil {
		return []byte(`{"type":"error","code":"encode-failed"}`)
	}
	return data
}

// viewFor builds the redacted state for one seat. viewerID is the engine
// seat id, empty for a spectator view.
func viewFor(s *engine.State, viewerID string) *stateView {
	v := &stateView{
		CurrentPlayerID: s.CurrentPlayer().ID,
		Phase:           s.Phase,
		DeckCount:       len(s.Deck),
		Log:             s.Log,
	}
	for _, p := range s.Players {
		pv := playerView{
			Id:        p.ID,
			Username:  p.Name,
			Coins:     p.Coins,
			Influence: p.Influence(),
			Alive:     p.Alive,
			Revealed:  []engine.Character{},
		}
		for _, c := range p.Cards {
			if c.Revealed {
				pv.Revealed = append(pv.Revealed, c.Character)
			} else if p.ID == viewerID {
				pv.Cards = append(pv.Cards, c.Character)
			}
		}
		v.Players = append(v.Players, pv)
	}
	if pa := s.PendingAction; pa != nil {
		v.PendingAction = &pendingActionView{
			Type:             pa.Type,
			ActorID:          pa.ActorID,
			TargetID:         pa.TargetID,
			ClaimedCharacter: pa.ClaimedCharacter,
		}
	}
	if pb := s.PendingBlock; pb != nil {
		v.PendingBlock = &pendingBlockView{
			BlockerID:        pb.BlockerID,
			ClaimedCharacter: pb.ClaimedCharacter,
		}
	}
	if s.Phase == engine.PhaseExchange && s.PendingAction != nil && s.PendingAction.ActorID == viewerID {
		v.ExchangeOptions = s.ExchangeOptions
	}
	if id, ok := s.RevealOwedBy(); ok {
		v.AwaitingRevealBy = id
	}
	for _, r := range s.Responders() {
		v.ResponderIDs = append(v.ResponderIDs, r.ID)
	}
	if s.Winner != nil {
		v.WinnerID = s.Winner.ID
	}
	return v
}
