package main

import (
	"strings"

	"github.com/pterm/pterm"

	"coup/engine"
)

// characterStyle colors a role name the way the court cards are usually
// printed: money roles green, killers red, the rest cyan.
func characterStyle(c engine.Character) string {
	switch c {
	case engine.Duke:
		return pterm.LightGreen(c.DisplayName())
	case engine.Assassin:
		return pterm.LightRed(c.DisplayName())
	case engine.Contessa:
		return pterm.LightMagenta(c.DisplayName())
	case engine.Captain:
		return pterm.LightBlue(c.DisplayName())
	case engine.Ambassador:
		return pterm.LightCyan(c.DisplayName())
	}
	return c.DisplayName()
}

func actionLabel(a engine.ActionType) string {
	switch a {
	case engine.Income:
		return "Income (+1 coin)"
	case engine.ForeignAid:
		return "Foreign Aid (+2 coins, blockable by Duke)"
	case engine.CoupAction:
		return "Coup (pay 7, unstoppable)"
	case engine.Tax:
		return "Tax (+3 coins, claims Duke)"
	case engine.Assassinate:
		return "Assassinate (pay 3, claims Assassin)"
	case engine.Steal:
		return "Steal (take 2 coins, claims Captain)"
	case engine.Exchange:
		return "Exchange (swap cards, claims Ambassador)"
	}
	return string(a)
}

// printTable renders every seat as a box. The viewer's box shows the
// hidden hand; opponents only show what the table can see.
func printTable(s *engine.State, viewerID string) {
	var opponents []pterm.Panel
	var viewer pterm.Panel
	for _, p := range s.Players {
		if p.ID == viewerID {
			viewer = pterm.Panel{Data: playerBox(s, p, true)}
			continue
		}
		opponents = append(opponents, pterm.Panel{Data: playerBox(s, p, false)})
	}

	_ = pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		opponents,
		{viewer},
	}).Render()
}

func playerBox(s *engine.State, p *engine.Player, own bool) string {
	pbox := pterm.DefaultBox.WithHorizontalPadding(3).WithTopPadding(1).WithBottomPadding(1)

	var status string
	switch {
	case !p.Alive:
		status = pterm.LightRed("Out")
	case s.CurrentPlayer().ID == p.ID:
		status = pterm.LightGreen("On turn")
	default:
		status = "Waiting"
	}

	var cards []string
	for _, c := range p.Cards {
		switch {
		case c.Revealed:
			cards = append(cards, pterm.Gray(c.Character.DisplayName()+" (revealed)"))
		case own:
			cards = append(cards, characterStyle(c.Character))
		default:
			cards = append(cards, pterm.FgDarkGray.Sprint("[hidden]"))
		}
	}

	title := p.Name
	if own {
		title = pterm.LightCyan(p.Name)
	}
	return pbox.WithTitle(title).WithTitleTopLeft().
		Sprintf("%s\nCoins: %d\n%s", status, p.Coins, strings.Join(cards, "\n"))
}

// printNewLog prints the narration lines appended since the last call and
// returns the new cursor.
func printNewLog(s *engine.State, from int) int {
	for _, line := range s.Log[from:] {
		pterm.Info.Println(line)
	}
	return len(s.Log)
}
