package models

import "time"

// Read-only rows served by the external tournament/match/registration store.
// This service never writes them; ranks are derived, rebuildable artifacts.

// PlacementRecord is one participant's finishing position in a tournament.
// PlayerID is 0 when the referenced player was deleted upstream — such rows
// are skipped during computation rather than treated as fatal.
type PlacementRecord struct {
	TournamentID int64     `json:"tournament_id"`
	PlayerID     int64     `json:"player_id"`
	TeamID       int64     `json:"team_id"`
	Placement    int       `json:"placement"` // 1 = winner
	RegisteredAt time.Time `json:"registered_at"`
	IsActive     bool      `json:"is_active"`
}

// MatchOutcome is one completed match result.
type MatchOutcome struct {
	TournamentID int64 `json:"tournament_id"`
	WinnerID     int64 `json:"winner_id"`
	LoserID      int64 `json:"loser_id"`
}

// StandingRecord is a running aggregate maintained by the external store,
// used for season and all-time scopes. Points accumulate upstream; this
// engine only sorts and ranks them.
type StandingRecord struct {
	SeasonID     int64     `json:"season_id"` // 0 for all-time rows
	GameCode     string    `json:"game_code"`
	PlayerID     int64     `json:"player_id"`
	TeamID       int64     `json:"team_id"`
	Points       int64     `json:"points"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	RegisteredAt time.Time `json:"registered_at"`
	IsActive     bool      `json:"is_active"`
}
