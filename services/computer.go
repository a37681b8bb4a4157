package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"leaderboard-service/models"
)

// RecordStore is the read-only view into the external tournament/match/
// registration store. This engine never writes through it — ranks are
// derived, rebuildable artifacts, not stored back.
type RecordStore interface {
	// FetchPlacements returns participants with a non-null placement for the
	// tournament. Rows referencing deleted players carry PlayerID 0.
	FetchPlacements(ctx context.Context, tournamentID int64) ([]models.PlacementRecord, error)
	// FetchMatchOutcomes returns completed match results for the tournament.
	FetchMatchOutcomes(ctx context.Context, tournamentID int64) ([]models.MatchOutcome, error)
	// FetchGameFormat returns the tournament's game format code, used to pick
	// a scoring table. Unknown tournaments return "".
	FetchGameFormat(ctx context.Context, tournamentID int64) (string, error)
	// FetchStandings returns aggregate season standings (seasonID > 0) or
	// all-time standings (seasonID 0), optionally filtered by game code.
	FetchStandings(ctx context.Context, seasonID int64, gameCode string) ([]models.StandingRecord, error)
	// ListSeasonIDs and ListGameCodes drive the snapshot fan-out.
	ListSeasonIDs(ctx context.Context) ([]int64, error)
	ListGameCodes(ctx context.Context) ([]string, error)
}

// LeaderboardComputer builds fully ranked, contiguous entry lists for a
// scope. Computation is a pure function of the record store's current state,
// so concurrent invocations may recompute redundantly without coordination.
type LeaderboardComputer struct {
	Records RecordStore
	Tables  *TableSet
}

func NewLeaderboardComputer(records RecordStore, tables *TableSet) *LeaderboardComputer {
	return &LeaderboardComputer{Records: records, Tables: tables}
}

// internal sort row; registration time participates in tie-breaking but is
// never exposed on the wire
type rankedRow struct {
	entry        models.LeaderboardEntry
	placement    int
	registeredAt time.Time
}

// Compute dispatches on the scope type.
func (c *LeaderboardComputer) Compute(ctx context.Context, scope models.Scope) ([]models.LeaderboardEntry, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	switch scope.Type {
	case models.ScopeTournament:
		return c.ComputeTournament(ctx, scope.TournamentID)
	case models.ScopeSeason:
		return c.ComputeStandings(ctx, scope.SeasonID, scope.GameCode)
	default:
		return c.ComputeStandings(ctx, 0, scope.GameCode)
	}
}

// ComputeTournament ranks every placed, active participant of one tournament.
// Zero placed participants yields an empty list, not an error.
func (c *LeaderboardComputer) ComputeTournament(ctx context.Context, tournamentID int64) ([]models.LeaderboardEntry, error) {
	placements, err := c.Records.FetchPlacements(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("fetch placements for tournament %d: %w", tournamentID, err)
	}
	if len(placements) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	outcomes, err := c.Records.FetchMatchOutcomes(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("fetch match outcomes for tournament %d: %w", tournamentID, err)
	}
	wins := make(map[int64]int)
	losses := make(map[int64]int)
	for _, m := range outcomes {
		wins[m.WinnerID]++
		losses[m.LoserID]++
	}

	format, err := c.Records.FetchGameFormat(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("fetch game format for tournament %d: %w", tournamentID, err)
	}
	table := c.Tables.Resolve(format)

	now := time.Now().UTC()
	rows := make([]rankedRow, 0, len(placements))
	for _, p := range placements {
		if p.PlayerID <= 0 {
			// participant's player was deleted upstream — skip, not fatal
			continue
		}
		if !p.IsActive || p.Placement <= 0 {
			continue
		}
		w := wins[p.PlayerID]
		l := losses[p.PlayerID]
		rows = append(rows, rankedRow{
			entry: models.LeaderboardEntry{
				PlayerID:    p.PlayerID,
				TeamID:      p.TeamID,
				Points:      table.PlacementPoints(p.Placement) + WinBonus(w),
				Wins:        w,
				Losses:      l,
				WinRate:     winRate(w, l),
				LastUpdated: now,
			},
			placement:    p.Placement,
			registeredAt: p.RegisteredAt,
		})
	}

	// tie-break chain: placement asc, wins desc, registration asc
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].placement != rows[j].placement {
			return rows[i].placement < rows[j].placement
		}
		if rows[i].entry.Wins != rows[j].entry.Wins {
			return rows[i].entry.Wins > rows[j].entry.Wins
		}
		return rows[i].registeredAt.Before(rows[j].registeredAt)
	})

	return assignRanks(rows), nil
}

// ComputeStandings ranks the season (seasonID > 0) or all-time (seasonID 0)
// aggregate set. Points are maintained by the external store; rank assignment
// follows the identical sort-then-assign procedure with points leading the
// tie-break chain.
func (c *LeaderboardComputer) ComputeStandings(ctx context.Context, seasonID int64, gameCode string) ([]models.LeaderboardEntry, error) {
	standings, err := c.Records.FetchStandings(ctx, seasonID, models.NormalizeGameCode(gameCode))
	if err != nil {
		return nil, fmt.Errorf("fetch standings (season=%d game=%q): %w", seasonID, gameCode, err)
	}

	now := time.Now().UTC()
	rows := make([]rankedRow, 0, len(standings))
	for _, s := range standings {
		if s.PlayerID <= 0 || !s.IsActive {
			continue
		}
		rows = append(rows, rankedRow{
			entry: models.LeaderboardEntry{
				PlayerID:    s.PlayerID,
				TeamID:      s.TeamID,
				Points:      s.Points,
				Wins:        s.Wins,
				Losses:      s.Losses,
				WinRate:     winRate(s.Wins, s.Losses),
				LastUpdated: now,
			},
			registeredAt: s.RegisteredAt,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].entry.Points != rows[j].entry.Points {
			return rows[i].entry.Points > rows[j].entry.Points
		}
		if rows[i].entry.Wins != rows[j].entry.Wins {
			return rows[i].entry.Wins > rows[j].entry.Wins
		}
		return rows[i].registeredAt.Before(rows[j].registeredAt)
	})

	return assignRanks(rows), nil
}

// assignRanks gives every surviving row a 1-based contiguous rank. Ties were
// fully broken by the sort, so no two entries ever share a rank.
func assignRanks(rows []rankedRow) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, len(rows))
	for i, r := range rows {
		r.entry.Rank = i + 1
		entries[i] = r.entry
	}
	return entries
}

func winRate(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}
