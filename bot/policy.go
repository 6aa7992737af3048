// Package bot implements the heuristic opponent policy. Every function is
// a pure decision over a read-only game state; scheduling, delays and the
// actual intent submission belong to the room coordinator.
package bot

import (
	"math/rand"
	"sort"

	"coup/engine"
)

// Decision is a turn action the bot wants to declare.
type Decision struct {
	Action   engine.ActionType
	TargetID string
	Claim    engine.Character
}

// BlockDecision is the bot's answer to an open block window.
type BlockDecision struct {
	Block bool
	Claim engine.Character
}

// cardValue ranks how much a role is worth keeping. Lower values are
// revealed first and discarded first on exchange.
var cardValue = map[engine.Character]int{
	engine.Duke:       5,
	engine.Assassin:   4,
	engine.Contessa:   4,
	engine.Captain:    3,
	engine.Ambassador: 3,
}

// Policy makes weighted-random decisions using an injected source so tests
// can fix the seed.
type Policy struct {
	rng *rand.Rand
}

// New returns a policy drawing from rng.
func New(rng *rand.Rand) *Policy {
	return &Policy{rng: rng}
}

// DecideTurnAction picks the bot's next declared action. It always
// produces an intent the engine accepts: coup is forced at 10+ coins and
// every other branch respects its coin cost.
func (p *Policy) DecideTurnAction(s *engine.State, self *engine.Player) Decision {
	opponents := make([]*engine.Player, 0, len(s.Players))
	for _, pl := range s.AlivePlayers() {
		if pl.ID != self.ID {
			opponents = append(opponents, pl)
		}
	}

	if self.Coins >= 10 {
		return p.decideCoup(opponents)
	}

	if self.Coins >= 7 {
		if p.rng.Float64() < 0.7 {
			return p.decideCoup(opponents)
		}
		return p.decideAssassinate(opponents)
	}

	if self.Coins >= 3 {
		switch p.weightedPick([]weighted{
			{engine.Assassinate, 0.3},
			{engine.Tax, 0.25},
			{engine.Steal, 0.25},
			{engine.Exchange, 0.2},
		}) {
		case engine.Assassinate:
			return p.decideAssassinate(opponents)
		case engine.Tax:
			return Decision{Action: engine.Tax, Claim: engine.Duke}
		case engine.Steal:
			return p.decideSteal(opponents)
		default:
			return Decision{Action: engine.Exchange, Claim: engine.Ambassador}
		}
	}

	// Low on coins: gather resources.
	switch p.weightedPick([]weighted{
		{engine.ForeignAid, 0.4},
		{engine.Tax, 0.3},
		{engine.Steal, 0.2},
		{engine.Income, 0.1},
	}) {
	case engine.ForeignAid:
		return Decision{Action: engine.ForeignAid}
	case engine.Tax:
		return Decision{Action: engine.Tax, Claim: engine.Duke}
	case engine.Steal:
		return p.decideSteal(opponents)
	default:
		return Decision{Action: engine.Income}
	}
}

// DecideChallenge says whether the bot challenges the open claim, either
// an action claim or a block claim. Bots holding a single card challenge
// far less often.
func (p *Policy) DecideChallenge(s *engine.State, self *engine.Player) bool {
	if self.Influence() <= 1 {
		return p.rng.Float64() < 0.1
	}

	pa := s.PendingAction
	if pa == nil {
		return false
	}

	if s.Phase == engine.PhaseBlockChallenge {
		return p.rng.Float64() < 0.25
	}

	targeted := pa.TargetID == self.ID
	switch pa.Type {
	case engine.Assassinate:
		if targeted {
			return p.rng.Float64() < 0.4
		}
		return p.rng.Float64() < 0.2
	case engine.Steal:
		if targeted {
			return p.rng.Float64() < 0.35
		}
		return p.rng.Float64() < 0.15
	case engine.Tax:
		return p.rng.Float64() < 0.15
	case engine.Exchange:
		return p.rng.Float64() < 0.2
	}
	return p.rng.Float64() < 0.1
}

// DecideBlock answers an open block window the bot is eligible for.
func (p *Policy) DecideBlock(s *engine.State, self *engine.Player) BlockDecision {
	pa := s.PendingAction
	if pa == nil {
		return BlockDecision{}
	}

	risk := 1.0
	if self.Influence() <= 1 {
		risk = 0.5
	}

	switch pa.Type {
	case engine.ForeignAid:
		if p.rng.Float64() < 0.3*risk {
			return BlockDecision{Block: true, Claim: engine.Duke}
		}
	case engine.Steal:
		if pa.TargetID == self.ID && p.rng.Float64() < 0.5*risk {
			claim := engine.Ambassador
			if p.rng.Float64() < 0.5 {
				claim = engine.Captain
			}
			return BlockDecision{Block: true, Claim: claim}
		}
	case engine.Assassinate:
		if pa.TargetID == self.ID && p.rng.Float64() < 0.7*risk {
			return BlockDecision{Block: true, Claim: engine.Contessa}
		}
	}
	return BlockDecision{}
}

// ChooseInfluenceToReveal picks which card to give up: the least valuable
// unrevealed one by the fixed value table. The returned index is the card
// slot to reveal.
func (p *Policy) ChooseInfluenceToReveal(self *engine.Player) int {
	best := -1
	for i, c := range self.Cards {
		if c.Revealed {
			continue
		}
		if best == -1 || cardValue[c.Character] < cardValue[self.Cards[best].Character] {
			best = i
		}
	}
	return best
}

// ChooseExchangeKeep keeps the keepCount most valuable characters from the
// offered pool, deterministically.
func (p *Policy) ChooseExchangeKeep(offered []engine.Character, keepCount int) []engine.Character {
	sorted := make([]engine.Character, len(offered))
	copy(sorted, offered)
	sort.SliceStable(sorted, func(i, j int) bool {
		return cardValue[sorted[i]] > cardValue[sorted[j]]
	})
	if keepCount > len(sorted) {
		keepCount = len(sorted)
	}
	return sorted[:keepCount]
}

func (p *Policy) decideCoup(opponents []*engine.Player) Decision {
	return Decision{Action: engine.CoupAction, TargetID: mostCards(opponents).ID}
}

func (p *Policy) decideAssassinate(opponents []*engine.Player) Decision {
	return Decision{
		Action:   engine.Assassinate,
		TargetID: mostCards(opponents).ID,
		Claim:    engine.Assassin,
	}
}

func (p *Policy) decideSteal(opponents []*engine.Player) Decision {
	return Decision{
		Action:   engine.Steal,
		TargetID: mostCoins(opponents).ID,
		Claim:    engine.Captain,
	}
}

// mostCards prefers the opponent with the most influence left, the bigger
// threat.
func mostCards(players []*engine.Player) *engine.Player {
	best := players[0]
	for _, p := range players[1:] {
		if p.Influence() > best.Influence() {
			best = p
		}
	}
	return best
}

func mostCoins(players []*engine.Player) *engine.Player {
	best := players[0]
	for _, p := range players[1:] {
		if p.Coins > best.Coins {
			best = p
		}
	}
	return best
}

type weighted struct {
	action engine.ActionType
	weight float64
}

func (p *Policy) weightedPick(options []weighted) engine.ActionType {
	total := 0.0
	for _, o := range options {
		total += o.weight
	}
	r := p.rng.Float64() * total
	for _, o := range options {
		r -= o.weight
		if r <= 0 {
			return o.action
		}
	}
	return options[0].action
}
