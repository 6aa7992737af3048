package engine

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	return New(rand.New(rand.NewSource(7)))
}

// rigGame builds a game where each player holds exactly the given cards,
// with the remainder of the 15-card deck face down. Players are named
// "A", "B", ... with ids "player-0", "player-1", ...
func rigGame(t *testing.T, hands ...[]Character) *State {
	t.Helper()
	remaining := map[Character]int{}
	for _, c := range AllCharacters() {
		remaining[c] = 3
	}

	players := make([]*Player, 0, len(hands))
	for i, hand := range hands {
		cards := make([]Card, 0, len(hand))
		for _, c := range hand {
			require.Positive(t, remaining[c], "too many copies of %s rigged", c)
			remaining[c]--
			cards = append(cards, Card{Character: c})
		}
		players = append(players, &Player{
			ID:    "player-" + string(rune('0'+i)),
			Name:  string(rune('A' + i)),
			Coins: startingCoins,
			Cards: cards,
			Alive: true,
		})
	}

	deck := Deck{}
	for _, c := range AllCharacters() {
		for i := 0; i < remaining[c]; i++ {
			deck = append(deck, c)
		}
	}

	s := &State{Players: players, Deck: deck, Phase: PhaseAction}
	s.checkCardAccounting()
	return s
}

func TestStartGame_PlayerCount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc    string
		names   []string
		wantErr error
	}{
		{desc: "one player rejected", names: []string{"solo"}, wantErr: ErrInvalidPlayerCount},
		{desc: "two players ok", names: []string{"a", "b"}},
		{desc: "six players ok", names: []string{"a", "b", "c", "d", "e", "f"}},
		{desc: "seven players rejected", names: []string{"a", "b", "c", "d", "e", "f", "g"}, wantErr: ErrInvalidPlayerCount},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			t.Parallel()
			s, err := testEngine().StartGame(tC.names)
			if tC.wantErr != nil {
				assert.ErrorIs(t, err, tC.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PhaseAction, s.Phase)
			assert.Equal(t, 0, s.CurrentPlayerIndex)
			for _, p := range s.Players {
				assert.Equal(t, 2, p.Coins)
				assert.Equal(t, 2, p.Influence())
				assert.True(t, p.Alive)
			}
		})
	}
}

func TestIncome_StrictTurnAlternation(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Duke, Assassin}, []Character{Captain, Contessa})

	// A cannot act twice in a row; B must act between A's turns.
	for i := 0; i < 3; i++ {
		require.NoError(t, e.SubmitAction(s, "player-0", Income, "", ""))
		assert.ErrorIs(t, e.SubmitAction(s, "player-0", Income, "", ""), ErrIllegalIntent)
		require.NoError(t, e.SubmitAction(s, "player-1", Income, "", ""))
	}

	assert.Equal(t, 5, s.Players[0].Coins)
	assert.Equal(t, 5, s.Players[1].Coins)
	assert.Equal(t, "player-0", s.CurrentPlayer().ID)
}

func TestMandatoryCoupAtTenCoins(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc   string
		action ActionType
	}{
		{desc: "income rejected", action: Income},
		{desc: "foreign aid rejected", action: ForeignAid},
		{desc: "tax rejected", action: Tax},
		{desc: "assassinate rejected", action: Assassinate},
		{desc: "steal rejected", action: Steal},
		{desc: "exchange rejected", action: Exchange},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			t.Parallel()
			e := testEngine()
			s := rigGame(t, []Character{Duke, Assassin}, []Character{Captain, Contessa})
			s.Players[0].Coins = 10

			err := e.SubmitAction(s, "player-0", tC.action, "player-1", "")
			assert.ErrorIs(t, err, ErrMustCoup)
			assert.Equal(t, 10, s.Players[0].Coins)
			assert.Equal(t, PhaseAction, s.Phase)
		})
	}

	t.Run("coup accepted", func(t *testing.T) {
		t.Parallel()
		e := testEngine()
		s := rigGame(t, []Character{Duke, Assassin}, []Character{Captain, Contessa})
		s.Players[0].Coins = 10

		require.NoError(t, e.SubmitAction(s, "player-0", CoupAction, "player-1", ""))
		assert.Equal(t, 3, s.Players[0].Coins)
		assert.Equal(t, PhaseLoseInfluence, s.Phase)
		owed, ok := s.RevealOwedBy()
		require.True(t, ok)
		assert.Equal(t, "player-1", owed)
	})
}

func TestTaxChallenge_GenuineDuke(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Duke, Assassin}, []Character{Captain, Contessa})

	require.NoError(t, e.SubmitAction(s, "player-0", Tax, "", ""))
	assert.Equal(t, PhaseChallenge, s.Phase)

	require.NoError(t, e.SubmitChallenge(s, "player-1"))

	// A held the Duke: the challenger owes a reveal, A keeps both cards.
	assert.Equal(t, PhaseLoseInfluence, s.Phase)
	owed, ok := s.RevealOwedBy()
	require.True(t, ok)
	assert.Equal(t, "player-1", owed)
	assert.Equal(t, 2, s.Players[0].Influence())
	assert.Len(t, s.Deck, DeckSize-4)

	require.NoError(t, e.SubmitInfluenceChoice(s, "player-1", 0))

	// Tax is not blockable, so the effect lands and the turn passes to B.
	assert.Equal(t, 5, s.Players[0].Coins)
	assert.Equal(t, 1, s.Players[1].Influence())
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestTaxChallenge_Bluff(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Captain, Assassin}, []Character{Duke, Contessa})

	require.NoError(t, e.SubmitAction(s, "player-0", Tax, "", ""))
	require.NoError(t, e.SubmitChallenge(s, "player-1"))

	owed, ok := s.RevealOwedBy()
	require.True(t, ok)
	assert.Equal(t, "player-0", owed)

	require.NoError(t, e.SubmitInfluenceChoice(s, "player-0", 1))

	// The bluffed tax is cancelled entirely.
	assert.Equal(t, 2, s.Players[0].Coins)
	assert.Equal(t, 1, s.Players[0].Influence())
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestAssassinate_BlockedByContessa(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Assassin, Duke}, []Character{Contessa, Captain})
	s.Players[0].Coins = 5

	require.NoError(t, e.SubmitAction(s, "player-0", Assassinate, "player-1", ""))
	// The 3 coins are paid up front.
	assert.Equal(t, 2, s.Players[0].Coins)
	assert.Equal(t, PhaseChallenge, s.Phase)

	require.NoError(t, e.SubmitPass(s, "player-1"))
	assert.Equal(t, PhaseBlock, s.Phase)

	require.NoError(t, e.SubmitBlock(s, "player-1", Contessa))
	assert.Equal(t, PhaseBlockChallenge, s.Phase)

	// A declines to challenge the block: the kill is off, coins stay spent.
	require.NoError(t, e.SubmitPass(s, "player-0"))
	assert.Equal(t, 2, s.Players[0].Coins)
	assert.Equal(t, 2, s.Players[1].Influence())
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestAssassinate_NoRefundWhenBluffCaught(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Duke, Captain}, []Character{Contessa, Contessa})
	s.Players[0].Coins = 3

	require.NoError(t, e.SubmitAction(s, "player-0", Assassinate, "player-1", ""))
	require.NoError(t, e.SubmitChallenge(s, "player-1"))
	require.NoError(t, e.SubmitInfluenceChoice(s, "player-0", 0))

	// The kill is cancelled but the 3 coins stay spent.
	assert.Equal(t, 0, s.Players[0].Coins)
	assert.Equal(t, 2, s.Players[1].Influence())
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestBlockChallenge_BlockerBluffed(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Captain, Duke}, []Character{Contessa, Assassin})
	s.Players[1].Coins = 3

	require.NoError(t, e.SubmitAction(s, "player-0", Steal, "player-1", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))
	require.NoError(t, e.SubmitBlock(s, "player-1", Ambassador))

	// Only the original actor may challenge the block.
	require.NoError(t, e.SubmitChallenge(s, "player-0"))

	owed, ok := s.RevealOwedBy()
	require.True(t, ok)
	assert.Equal(t, "player-1", owed)

	require.NoError(t, e.SubmitInfluenceChoice(s, "player-1", 1))

	// The failed block lets the steal land.
	assert.Equal(t, 4, s.Players[0].Coins)
	assert.Equal(t, 1, s.Players[1].Coins)
	assert.Equal(t, 1, s.Players[1].Influence())
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestBlockChallenge_BlockerGenuine(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Captain, Duke}, []Character{Ambassador, Assassin})

	require.NoError(t, e.SubmitAction(s, "player-0", Steal, "player-1", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))
	require.NoError(t, e.SubmitBlock(s, "player-1", Ambassador))
	require.NoError(t, e.SubmitChallenge(s, "player-0"))

	owed, ok := s.RevealOwedBy()
	require.True(t, ok)
	assert.Equal(t, "player-0", owed)

	require.NoError(t, e.SubmitInfluenceChoice(s, "player-0", 0))

	// The block stands: no coins moved, the challenger lost a card.
	assert.Equal(t, 2, s.Players[0].Coins)
	assert.Equal(t, 2, s.Players[1].Coins)
	assert.Equal(t, 1, s.Players[0].Influence())
	assert.Equal(t, 2, s.Players[1].Influence())
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
}

func TestSteal_FromZeroCoinTarget(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Captain, Duke}, []Character{Contessa, Assassin})
	s.Players[1].Coins = 0

	require.NoError(t, e.SubmitAction(s, "player-0", Steal, "player-1", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))
	require.NoError(t, e.SubmitPass(s, "player-1"))

	// A zero-coin target is still a legal steal; it just transfers nothing.
	assert.Equal(t, 2, s.Players[0].Coins)
	assert.Equal(t, 0, s.Players[1].Coins)
	assert.Equal(t, PhaseAction, s.Phase)
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
}

func TestSteal_CapsAtTargetCoins(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Captain, Duke}, []Character{Contessa, Assassin})
	s.Players[1].Coins = 1

	require.NoError(t, e.SubmitAction(s, "player-0", Steal, "player-1", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))
	require.NoError(t, e.SubmitPass(s, "player-1"))

	assert.Equal(t, 3, s.Players[0].Coins)
	assert.Equal(t, 0, s.Players[1].Coins)
}

func TestForeignAid_BlockedByDukeClaim(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Captain, Assassin}, []Character{Duke, Contessa})

	require.NoError(t, e.SubmitAction(s, "player-0", ForeignAid, "", ""))
	assert.Equal(t, PhaseBlock, s.Phase)

	require.NoError(t, e.SubmitBlock(s, "player-1", Duke))
	require.NoError(t, e.SubmitPass(s, "player-0"))

	assert.Equal(t, 2, s.Players[0].Coins)
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
}

func TestForeignAid_Unblocked(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Captain, Assassin}, []Character{Duke, Contessa})

	require.NoError(t, e.SubmitAction(s, "player-0", ForeignAid, "", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))

	assert.Equal(t, 4, s.Players[0].Coins)
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
}

func TestExchange_KeepCountEnforced(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Ambassador, Duke}, []Character{Contessa, Assassin})

	require.NoError(t, e.SubmitAction(s, "player-0", Exchange, "", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))

	assert.Equal(t, PhaseExchange, s.Phase)
	require.Len(t, s.ExchangeOptions, 2)

	// Keeping fewer cards than held is rejected without side effects.
	err := e.SubmitExchangeKeep(s, "player-0", []Character{Duke})
	assert.ErrorIs(t, err, ErrIllegalIntent)
	assert.Equal(t, PhaseExchange, s.Phase)

	// A character not in the offered pool is rejected too.
	pool := map[Character]int{Ambassador: 1, Duke: 1}
	for _, c := range s.ExchangeOptions {
		pool[c]++
	}
	var outside Character
	for _, c := range AllCharacters() {
		if pool[c] == 0 {
			outside = c
			break
		}
	}
	if outside != "" {
		err = e.SubmitExchangeKeep(s, "player-0", []Character{outside, outside})
		assert.ErrorIs(t, err, ErrIllegalIntent)
	}

	require.NoError(t, e.SubmitExchangeKeep(s, "player-0", []Character{Duke, s.ExchangeOptions[0]}))
	assert.Equal(t, 2, s.Players[0].Influence())
	assert.Len(t, s.Deck, DeckSize-4)
	assert.Empty(t, s.ExchangeOptions)
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
}

func TestExchange_SingleCardActor(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Ambassador, Duke}, []Character{Contessa, Assassin})
	s.Players[0].Cards[1].Revealed = true

	require.NoError(t, e.SubmitAction(s, "player-0", Exchange, "", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))

	err := e.SubmitExchangeKeep(s, "player-0", []Character{Ambassador, Ambassador})
	assert.ErrorIs(t, err, ErrIllegalIntent)

	require.NoError(t, e.SubmitExchangeKeep(s, "player-0", []Character{Ambassador}))
	assert.Equal(t, 1, s.Players[0].Influence())
	// The revealed card never re-enters the deck.
	assert.True(t, s.Players[0].Cards[1].Revealed)
}

func TestLastCardLoss_EndsGame(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Duke, Assassin}, []Character{Captain, Contessa})
	s.Players[1].Cards[1].Revealed = true

	require.NoError(t, e.SubmitAction(s, "player-0", Tax, "", ""))
	require.NoError(t, e.SubmitChallenge(s, "player-1"))
	require.NoError(t, e.SubmitInfluenceChoice(s, "player-1", 0))

	assert.False(t, s.Players[1].Alive)
	assert.Equal(t, PhaseGameOver, s.Phase)
	require.NotNil(t, s.Winner)
	assert.Equal(t, "player-0", s.Winner.ID)

	// A finished game accepts no further intents.
	assert.ErrorIs(t, e.SubmitAction(s, "player-0", Income, "", ""), ErrIllegalIntent)
}

func TestPass_SecondPassRejected(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Duke, Assassin}, []Character{Captain, Contessa})

	require.NoError(t, e.SubmitAction(s, "player-0", Tax, "", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))

	coins := s.Players[0].Coins
	err := e.SubmitPass(s, "player-1")
	assert.ErrorIs(t, err, ErrIllegalIntent)
	// The effect is never applied twice.
	assert.Equal(t, coins, s.Players[0].Coins)
}

func TestRejectedIntent_DoesNotMutateState(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Duke, Assassin}, []Character{Captain, Contessa}, []Character{Ambassador, Ambassador})

	before := cmp.Diff(s, &State{}, cmp.AllowUnexported(State{}, pendingReveal{}))

	testCases := []struct {
		desc   string
		intent func() error
	}{
		{desc: "out of turn action", intent: func() error { return e.SubmitAction(s, "player-1", Income, "", "") }},
		{desc: "self targeting", intent: func() error { return e.SubmitAction(s, "player-0", Steal, "player-0", "") }},
		{desc: "unknown player", intent: func() error { return e.SubmitAction(s, "ghost", Income, "", "") }},
		{desc: "unaffordable coup", intent: func() error { return e.SubmitAction(s, "player-0", CoupAction, "player-1", "") }},
		{desc: "challenge with nothing pending", intent: func() error { return e.SubmitChallenge(s, "player-1") }},
		{desc: "block with nothing pending", intent: func() error { return e.SubmitBlock(s, "player-1", Duke) }},
		{desc: "reveal with nothing owed", intent: func() error { return e.SubmitInfluenceChoice(s, "player-1", 0) }},
		{desc: "exchange keep with no exchange", intent: func() error { return e.SubmitExchangeKeep(s, "player-0", []Character{Duke, Assassin}) }},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			require.Error(t, tC.intent())
			after := cmp.Diff(s, &State{}, cmp.AllowUnexported(State{}, pendingReveal{}))
			assert.Equal(t, before, after, "rejected intent mutated the state")
		})
	}
}

func TestUnaffordableAssassinate(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Assassin, Duke}, []Character{Contessa, Captain})
	s.Players[0].Coins = 2

	err := e.SubmitAction(s, "player-0", Assassinate, "player-1", "")
	assert.ErrorIs(t, err, ErrInsufficientCoins)
	assert.Equal(t, 2, s.Players[0].Coins)
}

func TestThreePlayer_TurnSkipsEliminated(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t,
		[]Character{Duke, Assassin},
		[]Character{Captain, Captain},
		[]Character{Contessa, Contessa},
	)
	s.Players[1].Cards[0].Revealed = true
	s.Players[1].Cards[1].Revealed = true
	s.Players[1].Alive = false

	require.NoError(t, e.SubmitAction(s, "player-0", Income, "", ""))
	assert.Equal(t, "player-2", s.CurrentPlayer().ID, "eliminated seats are skipped")
}

func TestForfeit_OnOwnTurn(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t,
		[]Character{Duke, Assassin},
		[]Character{Captain, Captain},
		[]Character{Contessa, Contessa},
	)

	require.NoError(t, e.Forfeit(s, "player-0"))

	assert.False(t, s.Players[0].Alive)
	assert.Equal(t, 0, s.Players[0].Influence())
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestForfeit_LastOpponentEndsGame(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Duke, Assassin}, []Character{Captain, Contessa})

	require.NoError(t, e.Forfeit(s, "player-1"))

	assert.Equal(t, PhaseGameOver, s.Phase)
	require.NotNil(t, s.Winner)
	assert.Equal(t, "player-0", s.Winner.ID)

	// Nothing further is accepted, including another forfeit.
	assert.ErrorIs(t, e.Forfeit(s, "player-0"), ErrIllegalIntent)
}

func TestForfeit_DissolvesOpenExchange(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t,
		[]Character{Ambassador, Duke},
		[]Character{Captain, Captain},
		[]Character{Contessa, Contessa},
	)

	require.NoError(t, e.SubmitAction(s, "player-0", Exchange, "", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))
	require.Equal(t, PhaseExchange, s.Phase)
	require.Len(t, s.Deck, DeckSize-8)

	require.NoError(t, e.Forfeit(s, "player-0"))

	// The drawn options go back into the deck; no card is lost.
	assert.Empty(t, s.ExchangeOptions)
	assert.Len(t, s.Deck, DeckSize-6)
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestForfeit_ActorAbandonsDeclaredAction(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t,
		[]Character{Duke, Assassin},
		[]Character{Captain, Captain},
		[]Character{Contessa, Contessa},
	)

	require.NoError(t, e.SubmitAction(s, "player-0", Tax, "", ""))
	require.Equal(t, PhaseChallenge, s.Phase)

	require.NoError(t, e.Forfeit(s, "player-0"))

	// The abandoned tax never lands.
	assert.Equal(t, 2, s.Players[0].Coins)
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestForfeit_BlockDiesWithBlocker(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t,
		[]Character{Captain, Duke},
		[]Character{Ambassador, Assassin},
		[]Character{Contessa, Contessa},
	)

	require.NoError(t, e.SubmitAction(s, "player-0", Steal, "player-1", ""))
	require.NoError(t, e.SubmitPass(s, "player-1"))
	require.NoError(t, e.SubmitBlock(s, "player-1", Ambassador))
	require.Equal(t, PhaseBlockChallenge, s.Phase)

	require.NoError(t, e.Forfeit(s, "player-1"))

	// The block dies with the blocker and the steal resolves.
	assert.Equal(t, 4, s.Players[0].Coins)
	assert.Equal(t, 0, s.Players[1].Coins)
	assert.False(t, s.Players[1].Alive)
	assert.Equal(t, PhaseAction, s.Phase)
	assert.Equal(t, "player-2", s.CurrentPlayer().ID)
}

func TestForfeit_SatisfiesOwedReveal(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t,
		[]Character{Duke, Assassin},
		[]Character{Captain, Captain},
		[]Character{Contessa, Contessa},
	)
	s.Players[0].Coins = 7

	require.NoError(t, e.SubmitAction(s, "player-0", CoupAction, "player-1", ""))
	owed, ok := s.RevealOwedBy()
	require.True(t, ok)
	require.Equal(t, "player-1", owed)

	require.NoError(t, e.Forfeit(s, "player-1"))

	_, ok = s.RevealOwedBy()
	assert.False(t, ok)
	assert.False(t, s.Players[1].Alive)
	assert.Equal(t, "player-2", s.CurrentPlayer().ID)
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestForfeit_ActorLeavesWhileChallengerOwesReveal(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t,
		[]Character{Assassin, Duke},
		[]Character{Captain, Captain},
		[]Character{Contessa, Contessa},
	)
	s.Players[0].Coins = 3

	require.NoError(t, e.SubmitAction(s, "player-0", Assassinate, "player-1", ""))
	require.NoError(t, e.SubmitChallenge(s, "player-1"))
	owed, ok := s.RevealOwedBy()
	require.True(t, ok)
	require.Equal(t, "player-1", owed)

	require.NoError(t, e.Forfeit(s, "player-0"))

	// B still owes the failed challenge's card, but A's assassination is
	// abandoned: the reveal closes the turn with no further loss.
	owed, ok = s.RevealOwedBy()
	require.True(t, ok)
	require.Equal(t, "player-1", owed)

	require.NoError(t, e.SubmitInfluenceChoice(s, "player-1", 0))
	assert.Equal(t, 1, s.Players[1].Influence())
	assert.True(t, s.Players[1].Alive)
	assert.Equal(t, "player-1", s.CurrentPlayer().ID)
	assert.Equal(t, PhaseAction, s.Phase)
}

func TestLog_AppendOnlyNarration(t *testing.T) {
	t.Parallel()

	e := testEngine()
	s := rigGame(t, []Character{Duke, Assassin}, []Character{Captain, Contessa})

	logLen := len(s.Log)
	require.NoError(t, e.SubmitAction(s, "player-0", Income, "", ""))
	require.Greater(t, len(s.Log), logLen)
	assert.Equal(t, "A takes 1 coin (income).", s.Log[len(s.Log)-1])
}
