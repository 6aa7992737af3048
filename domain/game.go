package domain

import "time"

// GameResult is one player's outcome in one finished game.
type GameResult struct {
	RoomId     string
	UserId     string
	Username   string
	Won        bool
	FinishedAt time.Time
}

// GameHistoryEntry is a result row as read back for a player's profile.
type GameHistoryEntry struct {
	RoomId     string
	Won        bool
	FinishedAt time.Time
}
