package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

// Leaderboard scope names as they appear in URLs and cache keys
const (
	ScopeTournament = "tournament"
	ScopeSeason     = "season"
	ScopeAllTime    = "all_time"
)

var (
	ErrUnknownScope         = errors.New("unknown leaderboard scope")
	ErrSeasonIDRequired     = errors.New("season_id is required for scope=season")
	ErrTournamentIDRequired = errors.New("tournament_id is required for scope=tournament")
)

// Scope identifies one leaderboard instance: a single tournament, a season
// (optionally filtered by game), or the all-time board (optionally filtered
// by game). Exactly one of the id fields is meaningful per Type.
type Scope struct {
	Type         string `json:"scope"`
	TournamentID int64  `json:"tournament_id,omitempty"`
	SeasonID     int64  `json:"season_id,omitempty"`
	GameCode     string `json:"game_code,omitempty"`
}

func TournamentScope(tournamentID int64) Scope {
	return Scope{Type: ScopeTournament, TournamentID: tournamentID}
}

func SeasonScope(seasonID int64, gameCode string) Scope {
	return Scope{Type: ScopeSeason, SeasonID: seasonID, GameCode: NormalizeGameCode(gameCode)}
}

func AllTimeScope(gameCode string) Scope {
	return Scope{Type: ScopeAllTime, GameCode: NormalizeGameCode(gameCode)}
}

// NormalizeGameCode slugs the free-form game code so "Battle Royale" and
// "battle-royale" share one cache key and scoring table.
func NormalizeGameCode(code string) string {
	if code == "" {
		return ""
	}
	return slug.Make(code)
}

// Validate rejects scopes that cannot be resolved to a cache key or a
// record-store query. Missing ids are configuration errors, never defaulted.
func (s Scope) Validate() error {
	switch s.Type {
	case ScopeTournament:
		if s.TournamentID <= 0 {
			return ErrTournamentIDRequired
		}
	case ScopeSeason:
		if s.SeasonID <= 0 {
			return ErrSeasonIDRequired
		}
	case ScopeAllTime:
		// game code optional
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScope, s.Type)
	}
	return nil
}

// CacheKey returns the single cache key for this scope instance:
// tournament:{id}, season:{id}:{game|all}, all_time:{game|all}.
func (s Scope) CacheKey() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	game := s.GameCode
	if game == "" {
		game = "all"
	}
	switch s.Type {
	case ScopeTournament:
		return fmt.Sprintf("tournament:%d", s.TournamentID), nil
	case ScopeSeason:
		return fmt.Sprintf("season:%d:%s", s.SeasonID, game), nil
	default:
		return fmt.Sprintf("all_time:%s", game), nil
	}
}

// LeaderboardEntry is a computed row, never a system of record. It carries
// numeric identifiers only — no names, emails or avatars cross this boundary.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	PlayerID    int64     `json:"player_id"`
	TeamID      int64     `json:"team_id,omitempty"`
	Points      int64     `json:"points"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	WinRate     float64   `json:"win_rate"`
	LastUpdated time.Time `json:"last_updated"`
}

// Metadata describes how an entry list was produced.
type Metadata struct {
	Count               int        `json:"count"`
	CacheHit            bool       `json:"cache_hit"`
	ComputationDisabled bool       `json:"computation_disabled,omitempty"`
	CachedAt            *time.Time `json:"cached_at,omitempty"`
}
