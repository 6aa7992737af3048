package engine

import (
	"fmt"
	"math/rand"
)

// Deck is the face-down court deck, top of the deck at index 0.
type Deck []Character

const copiesPerCharacter = 3

// DeckSize is the full court deck size before dealing.
const DeckSize = copiesPerCharacter * 5

// BuildDeck returns a full 15-card deck shuffled with rng.
func BuildDeck(rng *rand.Rand) Deck {
	deck := make(Deck, 0, DeckSize)
	for _, c := range AllCharacters() {
		for i := 0; i < copiesPerCharacter; i++ {
			deck = append(deck, c)
		}
	}
	deck.shuffle(rng)
	return deck
}

func (d Deck) shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d), func(i, j int) { d[i], d[j] = d[j], d[i] })
}

// Draw removes and returns the top n cards. Exceeding the remaining size
// fails with ErrEmptyDeck; deck accounting guarantees this never happens
// for any legal game with up to 6 players.
func (d Deck) Draw(n int) ([]Character, Deck, error) {
	if n < 0 || n > len(d) {
		return nil, d, fmt.Errorf("%w: drawing %d of %d", ErrEmptyDeck, n, len(d))
	}
	drawn := make([]Character, n)
	copy(drawn, d[:n])
	remainder := make(Deck, len(d)-n)
	copy(remainder, d[n:])
	return drawn, remainder, nil
}
