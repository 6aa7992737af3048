package engine

import (
	"fmt"
	"math/rand"
)

// Engine applies player intents to a State. Every Submit method validates
// fully before mutating, so a rejected intent leaves the state untouched.
// Engine itself is not safe for concurrent use on one State; callers must
// guarantee at most one in-flight mutation per game.
type Engine struct {
	rng *rand.Rand
}

// New returns an engine drawing its shuffles from rng. Tests pass a fixed
// seed; production wiring seeds from crypto/rand.
func New(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

const (
	startingCoins = 2
	coupCost      = 7
	assassinCost  = 3
	mustCoupAt    = 10
)

// StartGame deals a fresh game for 2 to 6 players. Player ids are assigned
// by seat order: "player-0", "player-1", ...
func (e *Engine) StartGame(playerNames []string) (*State, error) {
	if len(playerNames) < 2 || len(playerNames) > 6 {
		return nil, fmt.Errorf("%w: got %d players", ErrInvalidPlayerCount, len(playerNames))
	}

	deck := BuildDeck(e.rng)
	players := make([]*Player, 0, len(playerNames))
	for i, name := range playerNames {
		drawn, rest, err := deck.Draw(2)
		if err != nil {
			return nil, err
		}
		deck = rest
		players = append(players, &Player{
			ID:    fmt.Sprintf("player-%d", i),
			Name:  name,
			Coins: startingCoins,
			Cards: []Card{{Character: drawn[0]}, {Character: drawn[1]}},
			Alive: true,
		})
	}

	s := &State{
		Players: players,
		Deck:    deck,
		Phase:   PhaseAction,
	}
	s.appendLog("The game begins with %d players.", len(players))
	s.checkCardAccounting()
	return s, nil
}

// SubmitAction declares the current player's turn action. claim may be
// empty; when given it must match the character the action asserts.
func (e *Engine) SubmitAction(s *State, actorID string, action ActionType, targetID string, claim Character) error {
	if s.Phase != PhaseAction {
		return fmt.Errorf("%w: no action accepted in phase %q", ErrIllegalIntent, s.Phase)
	}
	if !validAction(action) {
		return fmt.Errorf("%w: unknown action %q", ErrIllegalIntent, action)
	}
	actor := s.FindPlayer(actorID)
	if actor == nil {
		return fmt.Errorf("%w: unknown player %q", ErrIllegalIntent, actorID)
	}
	if !actor.Alive {
		return fmt.Errorf("%w: %s is eliminated", ErrIllegalIntent, actorID)
	}
	if actor != s.CurrentPlayer() {
		return fmt.Errorf("%w: not %s's turn", ErrIllegalIntent, actorID)
	}
	if actor.Coins >= mustCoupAt && action != CoupAction {
		return fmt.Errorf("%w: %d coins in hand", ErrMustCoup, actor.Coins)
	}
	if required, ok := requiredCharacter(action); ok && claim != "" && claim != required {
		return fmt.Errorf("%w: %s requires the %s claim", ErrIllegalIntent, action, required)
	}

	var target *Player
	if requiresTarget(action) {
		target = s.FindPlayer(targetID)
		if target == nil {
			return fmt.Errorf("%w: unknown target %q", ErrIllegalIntent, targetID)
		}
		if !target.Alive {
			return fmt.Errorf("%w: target %s is eliminated", ErrIllegalIntent, targetID)
		}
		if target == actor {
			return fmt.Errorf("%w: cannot target yourself", ErrIllegalIntent)
		}
	}

	switch action {
	case CoupAction:
		if actor.Coins < coupCost {
			return fmt.Errorf("%w: coup costs %d coins", ErrInsufficientCoins, coupCost)
		}
	case Assassinate:
		if actor.Coins < assassinCost {
			return fmt.Errorf("%w: assassination costs %d coins", ErrInsufficientCoins, assassinCost)
		}
	}

	switch action {
	case Income:
		actor.Coins++
		s.appendLog("%s takes 1 coin (income).", actor.Name)
		e.advanceTurn(s)

	case ForeignAid:
		s.PendingAction = &PendingAction{Type: ForeignAid, ActorID: actor.ID, CanBeBlocked: true}
		s.Phase = PhaseBlock
		s.appendLog("%s tries to take 2 coins (foreign aid).", actor.Name)

	case CoupAction:
		actor.Coins -= coupCost
		s.PendingAction = &PendingAction{Type: CoupAction, ActorID: actor.ID, TargetID: target.ID}
		s.reveal = &pendingReveal{playerID: target.ID, followup: followupAdvanceTurn}
		s.Phase = PhaseLoseInfluence
		s.appendLog("%s pays 7 coins and launches a coup against %s.", actor.Name, target.Name)

	case Tax:
		s.PendingAction = &PendingAction{Type: Tax, ActorID: actor.ID, ClaimedCharacter: Duke, CanBeChallenged: true}
		s.Phase = PhaseChallenge
		s.appendLog("%s claims the Duke and tries to collect 3 coins (tax).", actor.Name)

	case Assassinate:
		// The 3 coins are spent on declaration and never refunded, even
		// when the action is blocked or the claim is proven a bluff.
		actor.Coins -= assassinCost
		s.PendingAction = &PendingAction{
			Type: Assassinate, ActorID: actor.ID, TargetID: target.ID,
			ClaimedCharacter: Assassin, CanBeBlocked: true, CanBeChallenged: true,
		}
		s.Phase = PhaseChallenge
		s.appendLog("%s pays 3 coins, claims the Assassin and targets %s.", actor.Name, target.Name)

	case Steal:
		s.PendingAction = &PendingAction{
			Type: Steal, ActorID: actor.ID, TargetID: target.ID,
			ClaimedCharacter: Captain, CanBeBlocked: true, CanBeChallenged: true,
		}
		s.Phase = PhaseChallenge
		s.appendLog("%s claims the Captain and tries to steal from %s.", actor.Name, target.Name)

	case Exchange:
		s.PendingAction = &PendingAction{Type: Exchange, ActorID: actor.ID, ClaimedCharacter: Ambassador, CanBeChallenged: true}
		s.Phase = PhaseChallenge
		s.appendLog("%s claims the Ambassador and asks to exchange cards.", actor.Name)
	}

	return nil
}

// SubmitChallenge accuses the open claim of being a bluff: the pending
// action's claim during PhaseChallenge, or the pending block's claim
// during PhaseBlockChallenge. Only the original actor may challenge a
// block.
func (e *Engine) SubmitChallenge(s *State, challengerID string) error {
	challenger := s.FindPlayer(challengerID)
	if challenger == nil {
		return fmt.Errorf("%w: unknown player %q", ErrIllegalIntent, challengerID)
	}
	if !challenger.Alive {
		return fmt.Errorf("%w: %s is eliminated", ErrIllegalIntent, challengerID)
	}

	switch s.Phase {
	case PhaseChallenge:
		pa := s.PendingAction
		actor := s.FindPlayer(pa.ActorID)
		if challenger == actor {
			return fmt.Errorf("%w: cannot challenge your own claim", ErrIllegalIntent)
		}
		s.appendLog("%s challenges %s.", challenger.Name, actor.Name)

		if idx := actor.indexOfUnrevealed(pa.ClaimedCharacter); idx >= 0 {
			// Genuine claim: the shown card goes back into the deck and is
			// replaced before the challenger's forced reveal.
			e.replaceClaimedCard(s, actor, idx)
			s.appendLog("%s really holds the %s; the card is shuffled back and replaced.", actor.Name, pa.ClaimedCharacter.DisplayName())
			s.reveal = &pendingReveal{playerID: challenger.ID, followup: followupBlockOrEffect}
		} else {
			s.appendLog("%s was bluffing: no %s.", actor.Name, pa.ClaimedCharacter.DisplayName())
			s.reveal = &pendingReveal{playerID: actor.ID, followup: followupAdvanceTurn}
		}
		s.Phase = PhaseLoseInfluence
		return nil

	case PhaseBlockChallenge:
		pa := s.PendingAction
		pb := s.PendingBlock
		if challenger.ID != pa.ActorID {
			return fmt.Errorf("%w: only %s may challenge the block", ErrIllegalIntent, pa.ActorID)
		}
		blocker := s.FindPlayer(pb.BlockerID)
		s.appendLog("%s challenges the block by %s.", challenger.Name, blocker.Name)

		if idx := blocker.indexOfUnrevealed(pb.ClaimedCharacter); idx >= 0 {
			e.replaceClaimedCard(s, blocker, idx)
			s.appendLog("%s really holds the %s; the block stands.", blocker.Name, pb.ClaimedCharacter.DisplayName())
			s.reveal = &pendingReveal{playerID: challenger.ID, followup: followupAdvanceTurn}
		} else {
			s.appendLog("%s was bluffing: no %s. The block fails.", blocker.Name, pb.ClaimedCharacter.DisplayName())
			s.PendingBlock = nil
			s.reveal = &pendingReveal{playerID: blocker.ID, followup: followupApplyEffect}
		}
		s.Phase = PhaseLoseInfluence
		return nil
	}

	return fmt.Errorf("%w: nothing to challenge in phase %q", ErrIllegalIntent, s.Phase)
}

// SubmitBlock claims a blocking character against the pending action.
// Foreign aid may be blocked by anyone else; assassination and steal only
// by their target.
func (e *Engine) SubmitBlock(s *State, blockerID string, claim Character) error {
	if s.Phase != PhaseBlock {
		return fmt.Errorf("%w: no block accepted in phase %q", ErrIllegalIntent, s.Phase)
	}
	pa := s.PendingAction
	blocker := s.FindPlayer(blockerID)
	if blocker == nil {
		return fmt.Errorf("%w: unknown player %q", ErrIllegalIntent, blockerID)
	}
	if !blocker.Alive {
		return fmt.Errorf("%w: %s is eliminated", ErrIllegalIntent, blockerID)
	}
	if blocker.ID == pa.ActorID {
		return fmt.Errorf("%w: cannot block your own action", ErrIllegalIntent)
	}
	if pa.Type != ForeignAid && blocker.ID != pa.TargetID {
		return fmt.Errorf("%w: only the target may block %s", ErrIllegalIntent, pa.Type)
	}
	allowed := false
	for _, c := range blockingCharacters(pa.Type) {
		if c == claim {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s does not block %s", ErrIllegalIntent, claim, pa.Type)
	}

	s.PendingBlock = &PendingBlock{BlockerID: blocker.ID, ClaimedCharacter: claim}
	s.Phase = PhaseBlockChallenge
	s.appendLog("%s claims the %s and blocks.", blocker.Name, claim.DisplayName())
	return nil
}

// SubmitPass closes the open response window: nobody challenges, nobody
// blocks, or the actor accepts a block. Collecting individual declines
// into this single pass is the coordinator's job.
func (e *Engine) SubmitPass(s *State, playerID string) error {
	player := s.FindPlayer(playerID)
	if player == nil {
		return fmt.Errorf("%w: unknown player %q", ErrIllegalIntent, playerID)
	}
	if !player.Alive {
		return fmt.Errorf("%w: %s is eliminated", ErrIllegalIntent, playerID)
	}

	switch s.Phase {
	case PhaseChallenge:
		if player.ID == s.PendingAction.ActorID {
			return fmt.Errorf("%w: the actor cannot pass their own claim window", ErrIllegalIntent)
		}
		s.appendLog("Nobody challenges.")
		if s.PendingAction.CanBeBlocked {
			s.Phase = PhaseBlock
			return nil
		}
		e.resolveEffect(s)
		return nil

	case PhaseBlock:
		if player.ID == s.PendingAction.ActorID {
			return fmt.Errorf("%w: the actor cannot decline a block", ErrIllegalIntent)
		}
		s.appendLog("Nobody blocks.")
		e.resolveEffect(s)
		return nil

	case PhaseBlockChallenge:
		if player.ID != s.PendingAction.ActorID {
			return fmt.Errorf("%w: only %s may accept the block", ErrIllegalIntent, s.PendingAction.ActorID)
		}
		s.appendLog("%s accepts the block.", player.Name)
		e.advanceTurn(s)
		return nil
	}

	return fmt.Errorf("%w: nothing to pass in phase %q", ErrIllegalIntent, s.Phase)
}

// SubmitInfluenceChoice reveals the chosen card of the player who owes an
// influence loss, then resumes the interrupted resolution.
func (e *Engine) SubmitInfluenceChoice(s *State, playerID string, cardIndex int) error {
	if s.Phase != PhaseLoseInfluence || s.reveal == nil {
		return fmt.Errorf("%w: no influence loss pending", ErrIllegalIntent)
	}
	if s.reveal.playerID != playerID {
		return fmt.Errorf("%w: %s does not owe a reveal", ErrIllegalIntent, playerID)
	}
	player := s.FindPlayer(playerID)
	if cardIndex < 0 || cardIndex >= len(player.Cards) {
		return fmt.Errorf("%w: card index %d out of range", ErrIllegalIntent, cardIndex)
	}
	if player.Cards[cardIndex].Revealed {
		return fmt.Errorf("%w: card %d is already revealed", ErrIllegalIntent, cardIndex)
	}

	player.Cards[cardIndex].Revealed = true
	s.appendLog("%s reveals a %s.", player.Name, player.Cards[cardIndex].Character.DisplayName())
	if player.Influence() == 0 {
		player.Alive = false
		s.appendLog("%s has no influence left and is out of the game.", player.Name)
	}

	followup := s.reveal.followup
	s.reveal = nil

	if e.checkWin(s) {
		return nil
	}

	switch followup {
	case followupAdvanceTurn:
		e.advanceTurn(s)
	case followupBlockOrEffect:
		if s.PendingAction.CanBeBlocked && len(remainingBlockers(s)) > 0 {
			s.Phase = PhaseBlock
		} else {
			e.resolveEffect(s)
		}
	case followupApplyEffect:
		e.resolveEffect(s)
	}
	return nil
}

// remainingBlockers lists who could still block the surviving action; a
// targeted action whose target just died has no block window left.
func remainingBlockers(s *State) []*Player {
	pa := s.PendingAction
	if pa.Type == ForeignAid {
		out := []*Player{}
		for _, p := range s.AlivePlayers() {
			if p.ID != pa.ActorID {
				out = append(out, p)
			}
		}
		return out
	}
	target := s.FindPlayer(pa.TargetID)
	if target == nil || !target.Alive {
		return nil
	}
	return []*Player{target}
}

// SubmitExchangeKeep completes an ambassador exchange. kept must contain
// exactly as many characters as the actor has unrevealed cards, drawn from
// the union of those cards and the two offered from the deck.
func (e *Engine) SubmitExchangeKeep(s *State, actorID string, kept []Character) error {
	if s.Phase != PhaseExchange {
		return fmt.Errorf("%w: no exchange in progress", ErrIllegalIntent)
	}
	pa := s.PendingAction
	if actorID != pa.ActorID {
		return fmt.Errorf("%w: %s is not exchanging", ErrIllegalIntent, actorID)
	}
	actor := s.FindPlayer(actorID)
	keepCount := actor.Influence()
	if len(kept) != keepCount {
		return fmt.Errorf("%w: must keep exactly %d cards, got %d", ErrIllegalIntent, keepCount, len(kept))
	}

	pool := map[Character]int{}
	for _, c := range actor.Cards {
		if !c.Revealed {
			pool[c.Character]++
		}
	}
	for _, c := range s.ExchangeOptions {
		pool[c]++
	}
	for _, c := range kept {
		if pool[c] == 0 {
			return fmt.Errorf("%w: %s is not among the offered cards", ErrIllegalIntent, c)
		}
		pool[c]--
	}

	// Remaining pool entries go back into the deck; kept characters take
	// the actor's unrevealed slots in the order given.
	slot := 0
	for i := range actor.Cards {
		if actor.Cards[i].Revealed {
			continue
		}
		actor.Cards[i] = Card{Character: kept[slot]}
		slot++
	}
	returned := 0
	for c, n := range pool {
		for i := 0; i < n; i++ {
			s.Deck = append(s.Deck, c)
			returned++
		}
	}
	s.Deck.shuffle(e.rng)
	s.ExchangeOptions = nil
	s.appendLog("%s returns %d cards to the court deck.", actor.Name, returned)
	s.checkCardAccounting()
	e.advanceTurn(s)
	return nil
}

// Forfeit removes a player who leaves mid-game. All their influence is
// revealed and whatever the game was waiting on them for is unwound.
func (e *Engine) Forfeit(s *State, playerID string) error {
	if s.Phase == PhaseGameOver {
		return fmt.Errorf("%w: the game is over", ErrIllegalIntent)
	}
	p := s.FindPlayer(playerID)
	if p == nil {
		return fmt.Errorf("%w: unknown player %q", ErrIllegalIntent, playerID)
	}
	if !p.Alive {
		return fmt.Errorf("%w: %s is already eliminated", ErrIllegalIntent, playerID)
	}

	for i := range p.Cards {
		p.Cards[i].Revealed = true
	}
	p.Alive = false
	s.appendLog("%s concedes and reveals all influence.", p.Name)

	if e.checkWin(s) {
		return nil
	}

	// An open exchange dissolves; its options go back into the deck.
	if s.Phase == PhaseExchange && s.PendingAction.ActorID == playerID {
		s.Deck = append(s.Deck, s.ExchangeOptions...)
		s.Deck.shuffle(e.rng)
		s.ExchangeOptions = nil
		s.checkCardAccounting()
		e.advanceTurn(s)
		return nil
	}

	// A reveal owed by the leaver is satisfied by the forfeit itself.
	if s.reveal != nil && s.reveal.playerID == playerID {
		followup := s.reveal.followup
		s.reveal = nil
		switch followup {
		case followupAdvanceTurn:
			e.advanceTurn(s)
		case followupBlockOrEffect:
			if s.PendingAction.CanBeBlocked && len(remainingBlockers(s)) > 0 {
				s.Phase = PhaseBlock
			} else {
				e.resolveEffect(s)
			}
		case followupApplyEffect:
			e.resolveEffect(s)
		}
		return nil
	}

	// A reveal owed by somebody else stays owed. If the leaver was the
	// actor their action is abandoned, so the reveal now just ends the
	// turn.
	if s.reveal != nil {
		if pa := s.PendingAction; pa != nil && pa.ActorID == playerID {
			s.reveal.followup = followupAdvanceTurn
			s.PendingBlock = nil
		}
		return nil
	}

	// A turn or claim owned by the leaver is abandoned outright.
	if s.Phase == PhaseAction && s.CurrentPlayer() == p {
		e.advanceTurn(s)
		return nil
	}
	if pa := s.PendingAction; pa != nil && pa.ActorID == playerID {
		e.advanceTurn(s)
		return nil
	}
	if pb := s.PendingBlock; pb != nil && pb.BlockerID == playerID {
		// The block dies with the blocker and the action resolves.
		s.PendingBlock = nil
		e.resolveEffect(s)
		return nil
	}

	// A block window whose only eligible blocker just left resolves as
	// unblocked; the effect itself fizzles against a dead target.
	if s.Phase == PhaseBlock && len(s.Responders()) == 0 {
		e.resolveEffect(s)
		return nil
	}
	return nil
}

// resolveEffect applies the pending action's effect after every challenge
// and block opportunity is spent.
func (e *Engine) resolveEffect(s *State) {
	pa := s.PendingAction
	actor := s.FindPlayer(pa.ActorID)

	switch pa.Type {
	case ForeignAid:
		actor.Coins += 2
		s.appendLog("%s receives 2 coins.", actor.Name)
		e.advanceTurn(s)

	case Tax:
		actor.Coins += 3
		s.appendLog("%s collects 3 coins (tax).", actor.Name)
		e.advanceTurn(s)

	case Steal:
		target := s.FindPlayer(pa.TargetID)
		if !target.Alive {
			s.appendLog("%s has been eliminated; there is nobody to steal from.", target.Name)
			e.advanceTurn(s)
			return
		}
		stolen := min(2, target.Coins)
		target.Coins -= stolen
		actor.Coins += stolen
		s.appendLog("%s steals %d coins from %s.", actor.Name, stolen, target.Name)
		e.advanceTurn(s)

	case Assassinate:
		target := s.FindPlayer(pa.TargetID)
		if !target.Alive {
			s.appendLog("%s is already out; the assassination fizzles.", target.Name)
			e.advanceTurn(s)
			return
		}
		s.appendLog("The assassination against %s succeeds.", target.Name)
		s.reveal = &pendingReveal{playerID: target.ID, followup: followupAdvanceTurn}
		s.Phase = PhaseLoseInfluence

	case Exchange:
		drawn, rest, err := s.Deck.Draw(2)
		if err != nil {
			panic(fmt.Sprintf("engine: %v", err))
		}
		s.Deck = rest
		s.ExchangeOptions = drawn
		s.Phase = PhaseExchange
		s.appendLog("%s draws 2 cards from the court deck.", actor.Name)
		s.checkCardAccounting()
	}
}

// replaceClaimedCard returns the shown card to the deck, reshuffles, and
// deals a replacement into the same slot.
func (e *Engine) replaceClaimedCard(s *State, p *Player, idx int) {
	s.Deck = append(s.Deck, p.Cards[idx].Character)
	s.Deck.shuffle(e.rng)
	drawn, rest, err := s.Deck.Draw(1)
	if err != nil {
		panic(fmt.Sprintf("engine: %v", err))
	}
	s.Deck = rest
	p.Cards[idx] = Card{Character: drawn[0]}
	s.checkCardAccounting()
}

func (e *Engine) checkWin(s *State) bool {
	alive := s.AlivePlayers()
	if len(alive) != 1 {
		return false
	}
	s.Winner = alive[0]
	s.Phase = PhaseGameOver
	s.PendingAction = nil
	s.PendingBlock = nil
	s.ExchangeOptions = nil
	s.reveal = nil
	s.appendLog("%s wins the game!", alive[0].Name)
	return true
}

func (e *Engine) advanceTurn(s *State) {
	s.PendingAction = nil
	s.PendingBlock = nil
	s.reveal = nil
	next := (s.CurrentPlayerIndex + 1) % len(s.Players)
	for !s.Players[next].Alive {
		next = (next + 1) % len(s.Players)
	}
	s.CurrentPlayerIndex = next
	s.Phase = PhaseAction
}
