package engine

// Character is one of the five court roles. Three copies of each exist in
// the deck, 15 cards total.
type Character string

const (
	Duke       Character = "duke"
	Assassin   Character = "assassin"
	Contessa   Character = "contessa"
	Captain    Character = "captain"
	Ambassador Character = "ambassador"
)

// ActionType identifies a declarable turn action.
type ActionType string

const (
	Income      ActionType = "income"
	ForeignAid  ActionType = "foreign_aid"
	CoupAction  ActionType = "coup"
	Tax         ActionType = "tax"
	Assassinate ActionType = "assassinate"
	Steal       ActionType = "steal"
	Exchange    ActionType = "exchange"
)

// DisplayName returns the capitalized role name for log narration.
func (c Character) DisplayName() string {
	switch c {
	case Duke:
		return "Duke"
	case Assassin:
		return "Assassin"
	case Contessa:
		return "Contessa"
	case Captain:
		return "Captain"
	case Ambassador:
		return "Ambassador"
	}
	return string(c)
}

// AllCharacters returns the five roles in their canonical order.
func AllCharacters() []Character {
	return []Character{Duke, Assassin, Contessa, Captain, Ambassador}
}

// ValidCharacter reports whether c names one of the five roles.
func ValidCharacter(c Character) bool {
	switch c {
	case Duke, Assassin, Contessa, Captain, Ambassador:
		return true
	}
	return false
}

// requiredCharacter returns the character a claimed action asserts, or
// false for actions that carry no claim.
func requiredCharacter(a ActionType) (Character, bool) {
	switch a {
	case Tax:
		return Duke, true
	case Assassinate:
		return Assassin, true
	case Steal:
		return Captain, true
	case Exchange:
		return Ambassador, true
	}
	return "", false
}

// blockingCharacters returns the characters whose claim can block a.
func blockingCharacters(a ActionType) []Character {
	switch a {
	case ForeignAid:
		return []Character{Duke}
	case Assassinate:
		return []Character{Contessa}
	case Steal:
		return []Character{Captain, Ambassador}
	}
	return nil
}

// requiresTarget reports whether a must name a target player.
func requiresTarget(a ActionType) bool {
	return a == CoupAction || a == Assassinate || a == Steal
}

func validAction(a ActionType) bool {
	switch a {
	case Income, ForeignAid, CoupAction, Tax, Assassinate, Steal, Exchange:
		return true
	}
	return false
}
