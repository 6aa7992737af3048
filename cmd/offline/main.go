package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"coup/bot"
	"coup/engine"
	"coup/shared/random"
)

const botMoveDelay = 700 * time.Millisecond

func main() {
	botCount := flag.Int("bots", 2, "number of bot opponents (1-5)")
	flag.Parse()
	if *botCount < 1 {
		*botCount = 1
	}
	if *botCount > 5 {
		*botCount = 5
	}

	pterm.Print("\n")
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("C", pterm.FgLightRed.ToStyle()),
		putils.LettersFromStringWithStyle("OUP", pterm.FgLightWhite.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}

	name, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Enter your name").
		WithDefaultValue("You").Show()
	pterm.Println()

	names := []string{name}
	for i := 1; i <= *botCount; i++ {
		names = append(names, fmt.Sprintf("Bot %d", i))
	}

	rng := rand.New(rand.NewSource(random.NewSeed()))
	eng := engine.New(rng)
	policy := bot.New(rng)

	state, err := eng.StartGame(names)
	if err != nil {
		pterm.Error.Println(err.Error())
		return
	}
	humanID := state.Players[0].ID

	g := &localGame{eng: eng, state: state, policy: policy, humanID: humanID}
	g.run()
}

type localGame struct {
	eng       *engine.Engine
	state     *engine.State
	policy    *bot.Policy
	humanID   string
	logCursor int
}

func (g *localGame) run() {
	s := g.state
	for s.Phase != engine.PhaseGameOver {
		g.logCursor = printNewLog(s, g.logCursor)

		if id, owed := s.RevealOwedBy(); owed {
			g.resolveReveal(id)
			continue
		}

		switch s.Phase {
		case engine.PhaseAction:
			g.playTurn()
		case engine.PhaseChallenge, engine.PhaseBlock, engine.PhaseBlockChallenge:
			g.resolveWindow()
		case engine.PhaseExchange:
			g.resolveExchange()
		}
	}

	g.logCursor = printNewLog(s, g.logCursor)
	printTable(s, g.humanID)
	if s.Winner != nil {
		if s.Winner.ID == g.humanID {
			pterm.Success.Printfln("%s wins the game!", s.Winner.Name)
		} else {
			pterm.Error.Printfln("%s wins the game.", s.Winner.Name)
		}
	}
}

func (g *localGame) playTurn() {
	s := g.state
	current := s.CurrentPlayer()
	if current.ID != g.humanID {
		time.Sleep(botMoveDelay)
		d := g.policy.DecideTurnAction(s, current)
		g.must(g.eng.SubmitAction(s, current.ID, d.Action, d.TargetID, d.Claim))
		return
	}

	printTable(s, g.humanID)

	options, byLabel := g.availableActions(current)
	picked, _ := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithDefaultText("Your turn. Choose an action").Show()
	action := byLabel[picked]

	targetID := ""
	if action == engine.CoupAction || action == engine.Assassinate || action == engine.Steal {
		targetID = g.pickTarget()
	}

	claim := actionClaim(action)
	if err := g.eng.SubmitAction(s, current.ID, action, targetID, claim); err != nil {
		pterm.Error.Println(err.Error())
	}
}

func (g *localGame) availableActions(p *engine.Player) ([]string, map[string]engine.ActionType) {
	var actions []engine.ActionType
	if p.Coins >= 10 {
		actions = []engine.ActionType{engine.CoupAction}
	} else {
		actions = []engine.ActionType{engine.Income, engine.ForeignAid, engine.Tax, engine.Steal, engine.Exchange}
		if p.Coins >= 3 {
			actions = append(actions, engine.Assassinate)
		}
		if p.Coins >= 7 {
			actions = append(actions, engine.CoupAction)
		}
	}

	labels := make([]string, 0, len(actions))
	byLabel := make(map[string]engine.ActionType, len(actions))
	for _, a := range actions {
		l := actionLabel(a)
		labels = append(labels, l)
		byLabel[l] = a
	}
	return labels, byLabel
}

func (g *localGame) pickTarget() string {
	s := g.state
	labels := make([]string, 0, len(s.Players))
	byLabel := make(map[string]string)
	for _, p := range s.AlivePlayers() {
		if p.ID == g.humanID {
			continue
		}
		l := fmt.Sprintf("%s (%d coins, %d cards)", p.Name, p.Coins, p.Influence())
		labels = append(labels, l)
		byLabel[l] = p.ID
	}
	picked, _ := pterm.DefaultInteractiveSelect.
		WithOptions(labels).
		WithDefaultText("Choose a target").Show()
	return byLabel[picked]
}

// resolveWindow walks the open response window. The first responder who
// challenges or blocks closes it; if everyone waves it through, a single
// pass resolves the window.
func (g *localGame) resolveWindow() {
	s := g.state
	responders := s.Responders()
	if len(responders) == 0 {
		g.must(g.eng.SubmitPass(s, s.PendingAction.ActorID))
		return
	}

	for _, r := range responders {
		if r.ID == g.humanID {
			if g.humanResponse() {
				return
			}
			continue
		}

		switch s.Phase {
		case engine.PhaseChallenge, engine.PhaseBlockChallenge:
			if g.policy.DecideChallenge(s, r) {
				time.Sleep(botMoveDelay)
				g.must(g.eng.SubmitChallenge(s, r.ID))
				return
			}
		case engine.PhaseBlock:
			if d := g.policy.DecideBlock(s, r); d.Block {
				time.Sleep(botMoveDelay)
				g.must(g.eng.SubmitBlock(s, r.ID, d.Claim))
				return
			}
		}
	}

	g.must(g.eng.SubmitPass(s, responders[0].ID))
}

// humanResponse prompts the human inside the current window and reports
// whether their reply closed it.
func (g *localGame) humanResponse() bool {
	s := g.state
	pa := s.PendingAction

	const passLabel = "Pass"
	var labels []string
	byLabel := map[string]func() error{}

	switch s.Phase {
	case engine.PhaseChallenge:
		prompt := fmt.Sprintf("%s claims %s", s.FindPlayer(pa.ActorID).Name, pa.ClaimedCharacter.DisplayName())
		l := "Challenge the claim"
		labels = append(labels, l)
		byLabel[l] = func() error { return g.eng.SubmitChallenge(s, g.humanID) }
		return g.promptResponse(prompt, labels, byLabel, passLabel)

	case engine.PhaseBlock:
		prompt := fmt.Sprintf("%s declares %s", s.FindPlayer(pa.ActorID).Name, actionLabel(pa.Type))
		for _, c := range blockersFor(pa.Type) {
			c := c
			l := fmt.Sprintf("Block, claiming %s", c.DisplayName())
			labels = append(labels, l)
			byLabel[l] = func() error { return g.eng.SubmitBlock(s, g.humanID, c) }
		}
		return g.promptResponse(prompt, labels, byLabel, passLabel)

	case engine.PhaseBlockChallenge:
		blocker := s.FindPlayer(s.PendingBlock.BlockerID)
		prompt := fmt.Sprintf("%s blocks with a claimed %s", blocker.Name, s.PendingBlock.ClaimedCharacter.DisplayName())
		l := "Challenge the block"
		labels = append(labels, l)
		byLabel[l] = func() error { return g.eng.SubmitChallenge(s, g.humanID) }
		return g.promptResponse(prompt, labels, byLabel, "Accept the block")
	}
	return false
}

func (g *localGame) promptResponse(prompt string, labels []string, byLabel map[string]func() error, passLabel string) bool {
	printTable(g.state, g.humanID)
	picked, _ := pterm.DefaultInteractiveSelect.
		WithOptions(append(labels, passLabel)).
		WithDefaultText(prompt).Show()
	if picked == passLabel {
		return false
	}
	if err := byLabel[picked](); err != nil {
		pterm.Error.Println(err.Error())
		return false
	}
	return true
}

func (g *localGame) resolveReveal(playerID string) {
	s := g.state
	p := s.FindPlayer(playerID)

	if playerID != g.humanID {
		time.Sleep(botMoveDelay)
		g.must(g.eng.SubmitInfluenceChoice(s, playerID, g.policy.ChooseInfluenceToReveal(p)))
		return
	}

	printTable(s, g.humanID)
	labels := make([]string, 0, len(p.Cards))
	byLabel := make(map[string]int)
	for i, c := range p.Cards {
		if c.Revealed {
			continue
		}
		l := c.Character.DisplayName()
		if _, dup := byLabel[l]; dup {
			l = fmt.Sprintf("%s (second copy)", l)
		}
		labels = append(labels, l)
		byLabel[l] = i
	}
	picked, _ := pterm.DefaultInteractiveSelect.
		WithOptions(labels).
		WithDefaultText("You lose an influence. Choose a card to reveal").Show()
	g.must(g.eng.SubmitInfluenceChoice(s, g.humanID, byLabel[picked]))
}

func (g *localGame) resolveExchange() {
	s := g.state
	actorID := s.PendingAction.ActorID
	actor := s.FindPlayer(actorID)
	keepCount := actor.Influence()

	// The keep pool is the unrevealed hand plus the drawn cards.
	pool := make([]engine.Character, 0, keepCount+len(s.ExchangeOptions))
	for _, c := range actor.Cards {
		if !c.Revealed {
			pool = append(pool, c.Character)
		}
	}
	pool = append(pool, s.ExchangeOptions...)

	if actorID != g.humanID {
		time.Sleep(botMoveDelay)
		kept := g.policy.ChooseExchangeKeep(pool, keepCount)
		g.must(g.eng.SubmitExchangeKeep(s, actorID, kept))
		return
	}

	remaining := pool
	kept := make([]engine.Character, 0, keepCount)
	for len(kept) < keepCount {
		labels := make([]string, len(remaining))
		for i, c := range remaining {
			labels[i] = fmt.Sprintf("%d: %s", i+1, c.DisplayName())
		}
		prompt := fmt.Sprintf("Exchange: pick card %d of %d to keep", len(kept)+1, keepCount)
		picked, _ := pterm.DefaultInteractiveSelect.
			WithOptions(labels).
			WithDefaultText(prompt).Show()
		for i, l := range labels {
			if l == picked {
				kept = append(kept, remaining[i])
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	g.must(g.eng.SubmitExchangeKeep(s, g.humanID, kept))
}

// must flushes unexpected engine rejections of moves the program itself
// generated. Human input errors are reported inline instead.
func (g *localGame) must(err error) {
	if err != nil {
		pterm.Error.Println(err.Error())
	}
}

func actionClaim(a engine.ActionType) engine.Character {
	switch a {
	case engine.Tax:
		return engine.Duke
	case engine.Assassinate:
		return engine.Assassin
	case engine.Steal:
		return engine.Captain
	case engine.Exchange:
		return engine.Ambassador
	}
	return ""
}

func blockersFor(a engine.ActionType) []engine.Character {
	switch a {
	case engine.ForeignAid:
		return []engine.Character{engine.Duke}
	case engine.Assassinate:
		return []engine.Character{engine.Contessa}
	case engine.Steal:
		return []engine.Character{engine.Captain, engine.Ambassador}
	}
	return nil
}
