package engine

import "fmt"

// Phase is the rules engine's position in the turn cycle.
type Phase string

const (
	PhaseAction         Phase = "action"
	PhaseChallenge      Phase = "challenge"
	PhaseBlock          Phase = "block"
	PhaseBlockChallenge Phase = "block_challenge"
	PhaseLoseInfluence  Phase = "lose_influence"
	PhaseExchange       Phase = "exchange"
	PhaseGameOver       Phase = "game_over"
)

// Card is one influence card. Revealed is permanent.
type Card struct {
	Character Character
	Revealed  bool
}

// Player is one seat in the game. Alive is false exactly when every card
// is revealed.
type Player struct {
	ID    string
	Name  string
	Coins int
	Cards []Card
	Alive bool
}

// Influence returns the number of unrevealed cards.
func (p *Player) Influence() int {
	n := 0
	for _, c := range p.Cards {
		if !c.Revealed {
			n++
		}
	}
	return n
}

// indexOfUnrevealed returns the index of an unrevealed card of character c,
// or -1 if the player does not hold one.
func (p *Player) indexOfUnrevealed(c Character) int {
	for i, card := range p.Cards {
		if !card.Revealed && card.Character == c {
			return i
		}
	}
	return -1
}

// PendingAction is a declared action awaiting challenge/block resolution.
type PendingAction struct {
	Type             ActionType
	ActorID          string
	TargetID         string
	ClaimedCharacter Character
	CanBeBlocked     bool
	CanBeChallenged  bool
}

// PendingBlock is a declared block awaiting the actor's counter-challenge
// or acceptance. While it exists it supersedes the pending action.
type PendingBlock struct {
	BlockerID        string
	ClaimedCharacter Character
}

// revealFollowup says how the turn resumes once an owed reveal arrives.
type revealFollowup int

const (
	// followupAdvanceTurn: nothing left to do, move to the next player.
	followupAdvanceTurn revealFollowup = iota
	// followupBlockOrEffect: the action survived a challenge; open the
	// block window if it is blockable, otherwise apply its effect.
	followupBlockOrEffect
	// followupApplyEffect: apply the action's effect directly.
	followupApplyEffect
)

type pendingReveal struct {
	playerID string
	followup revealFollowup
}

// State is the root aggregate for one game. It is owned by a single
// authority (a room actor or a local process) and mutated only by Engine.
type State struct {
	Players            []*Player
	CurrentPlayerIndex int
	Deck               Deck
	Phase              Phase
	PendingAction      *PendingAction
	PendingBlock       *PendingBlock
	// ExchangeOptions holds the cards drawn for an in-progress ambassador
	// exchange. Visible only to the exchanging player.
	ExchangeOptions []Character
	Winner          *Player
	// Log is append-only, user-facing narration in event order.
	Log []string

	reveal *pendingReveal
}

// CurrentPlayer returns the player whose turn it is.
func (s *State) CurrentPlayer() *Player {
	return s.Players[s.CurrentPlayerIndex]
}

// AlivePlayers returns the players still holding influence, in seat order.
func (s *State) AlivePlayers() []*Player {
	alive := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

// FindPlayer returns the player with the given id, or nil.
func (s *State) FindPlayer(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RevealOwedBy returns the id of the player who owes an influence reveal,
// if the game is waiting on one.
func (s *State) RevealOwedBy() (string, bool) {
	if s.reveal == nil {
		return "", false
	}
	return s.reveal.playerID, true
}

// Responders returns the players entitled to act in the current response
// window: everyone else for an action challenge, the eligible blockers for
// a block window, and only the original actor for a block challenge.
func (s *State) Responders() []*Player {
	switch s.Phase {
	case PhaseChallenge:
		out := make([]*Player, 0, len(s.Players))
		for _, p := range s.AlivePlayers() {
			if p.ID != s.PendingAction.ActorID {
				out = append(out, p)
			}
		}
		return out
	case PhaseBlock:
		if s.PendingAction.Type == ForeignAid {
			out := make([]*Player, 0, len(s.Players))
			for _, p := range s.AlivePlayers() {
				if p.ID != s.PendingAction.ActorID {
					out = append(out, p)
				}
			}
			return out
		}
		target := s.FindPlayer(s.PendingAction.TargetID)
		if target == nil || !target.Alive {
			return nil
		}
		return []*Player{target}
	case PhaseBlockChallenge:
		actor := s.FindPlayer(s.PendingAction.ActorID)
		if actor == nil || !actor.Alive {
			return nil
		}
		return []*Player{actor}
	}
	return nil
}

func (s *State) appendLog(format string, args ...any) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
}

// checkCardAccounting panics when the 15-token economy is violated. Cards
// live in hands (revealed or not), in the deck, or in an open exchange.
func (s *State) checkCardAccounting() {
	total := len(s.Deck) + len(s.ExchangeOptions)
	for _, p := range s.Players {
		total += len(p.Cards)
	}
	if total != DeckSize {
		panic(fmt.Sprintf("engine: card accounting broken, %d tokens in play, want %d", total, DeckSize))
	}
}
