package services

import (
	"encoding/json"
	"fmt"
	"sort"

	"leaderboard-service/models"
)

// WinBonusPerWin is added to placement points once per match win, for scopes
// that count match outcomes (tournament scope only).
const WinBonusPerWin = 10

// ScoreTier awards Points to every placement up to and including UpTo.
// Tiers are evaluated in ascending UpTo order.
type ScoreTier struct {
	UpTo   int   `json:"up_to"`
	Points int64 `json:"points"`
}

// ScoringTable maps a finishing placement to points. FloorPoints covers every
// placement past the last tier, making the table total over all positive
// integers.
type ScoringTable struct {
	Name        string      `json:"name"`
	Tiers       []ScoreTier `json:"tiers"`
	FloorPoints int64       `json:"floor_points"`
}

// DefaultScoringTable: 1st=1000, 2nd=750, 3rd=500, 4th-8th=250, 9th-16th=100,
// 17th and below=25.
func DefaultScoringTable() ScoringTable {
	return ScoringTable{
		Name: "default",
		Tiers: []ScoreTier{
			{UpTo: 1, Points: 1000},
			{UpTo: 2, Points: 750},
			{UpTo: 3, Points: 500},
			{UpTo: 8, Points: 250},
			{UpTo: 16, Points: 100},
		},
		FloorPoints: 25,
	}
}

// BattleRoyaleScoringTable: 1st=12, 2nd=9, 3rd=7, 4th=5, 5th-8th=3. Tiers
// below 8th place are deployment configuration; the built-in floor is 1.
func BattleRoyaleScoringTable() ScoringTable {
	return ScoringTable{
		Name: "battle-royale",
		Tiers: []ScoreTier{
			{UpTo: 1, Points: 12},
			{UpTo: 2, Points: 9},
			{UpTo: 3, Points: 7},
			{UpTo: 4, Points: 5},
			{UpTo: 8, Points: 3},
		},
		FloorPoints: 1,
	}
}

// PlacementPoints is pure and total over all positive placements. Placement
// zero or negative scores nothing (unplaced participants never reach here).
func (t ScoringTable) PlacementPoints(placement int) int64 {
	if placement <= 0 {
		return 0
	}
	for _, tier := range t.Tiers {
		if placement <= tier.UpTo {
			return tier.Points
		}
	}
	return t.FloorPoints
}

// WinBonus rewards match wins on top of placement points.
func WinBonus(wins int) int64 {
	if wins <= 0 {
		return 0
	}
	return int64(wins) * WinBonusPerWin
}

// Validate enforces the table invariants: tiers strictly ascending by UpTo,
// points strictly non-increasing as placement grows, and no tier drop larger
// than the previous tier's value (no cliff effects).
func (t ScoringTable) Validate() error {
	if len(t.Tiers) == 0 {
		return fmt.Errorf("scoring table %q has no tiers", t.Name)
	}
	prevUpTo := 0
	prevPoints := int64(-1)
	for i, tier := range t.Tiers {
		if tier.UpTo <= prevUpTo {
			return fmt.Errorf("scoring table %q: tier %d up_to %d must exceed previous %d", t.Name, i, tier.UpTo, prevUpTo)
		}
		if prevPoints >= 0 {
			if tier.Points > prevPoints {
				return fmt.Errorf("scoring table %q: tier %d points %d increases over previous %d", t.Name, i, tier.Points, prevPoints)
			}
			if prevPoints-tier.Points > prevPoints {
				return fmt.Errorf("scoring table %q: tier %d drops below zero", t.Name, i)
			}
		}
		prevUpTo = tier.UpTo
		prevPoints = tier.Points
	}
	if t.FloorPoints > prevPoints {
		return fmt.Errorf("scoring table %q: floor %d exceeds last tier %d", t.Name, t.FloorPoints, prevPoints)
	}
	if t.FloorPoints < 0 {
		return fmt.Errorf("scoring table %q: floor must be non-negative", t.Name)
	}
	return nil
}

// TableSet resolves a tournament's game format to its scoring table. Keys are
// slug-normalized game codes; unknown formats fall back to the default table.
type TableSet struct {
	tables map[string]ScoringTable
	def    ScoringTable
}

func NewTableSet() *TableSet {
	return &TableSet{
		tables: map[string]ScoringTable{
			"battle-royale": BattleRoyaleScoringTable(),
		},
		def: DefaultScoringTable(),
	}
}

// Register adds or replaces a table after validating it.
func (s *TableSet) Register(gameFormat string, table ScoringTable) error {
	if err := table.Validate(); err != nil {
		return err
	}
	key := models.NormalizeGameCode(gameFormat)
	if key == "" {
		s.def = table
		return nil
	}
	s.tables[key] = table
	return nil
}

// Resolve never fails: formats without a dedicated table use the default.
func (s *TableSet) Resolve(gameFormat string) ScoringTable {
	if t, ok := s.tables[models.NormalizeGameCode(gameFormat)]; ok {
		return t
	}
	return s.def
}

// Formats lists the registered format keys, sorted for stable logging.
func (s *TableSet) Formats() []string {
	keys := make([]string, 0, len(s.tables))
	for k := range s.tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadScoringTables parses the SCORING_TABLES env JSON
// ({"game-format": {"tiers": [{"up_to":1,"points":12}, ...], "floor_points":1}, ...})
// into the set, validating each table at load time. Invalid configuration is
// a startup error, never silently defaulted.
func (s *TableSet) LoadScoringTables(raw string) error {
	if raw == "" {
		return nil
	}
	var parsed map[string]ScoringTable
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("invalid SCORING_TABLES JSON: %w", err)
	}
	for format, table := range parsed {
		if table.Name == "" {
			table.Name = format
		}
		if err := s.Register(format, table); err != nil {
			return fmt.Errorf("SCORING_TABLES entry %q: %w", format, err)
		}
	}
	return nil
}
