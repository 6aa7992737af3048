package engine

import "errors"

// Rule violations are returned to the offending caller without mutating
// state. Invariant violations (deck accounting) panic instead: the entity
// graph is corrupt and the game cannot safely continue.
var (
	ErrIllegalIntent      = errors.New("illegal-intent")
	ErrInsufficientCoins  = errors.New("insufficient-coins")
	ErrMustCoup           = errors.New("must-coup")
	ErrEmptyDeck          = errors.New("empty-deck")
	ErrInvalidPlayerCount = errors.New("invalid-player-count")
)
