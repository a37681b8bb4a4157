package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"leaderboard-service/models"
)

// GormRecordStore reads the collaborator-owned tournament/match/registration
// tables. Every query is read-only; players deleted upstream surface as
// player_id 0 through the LEFT JOIN and are skipped by the computer.
type GormRecordStore struct {
	DB *gorm.DB
}

func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{DB: db}
}

func (s *GormRecordStore) FetchPlacements(ctx context.Context, tournamentID int64) ([]models.PlacementRecord, error) {
	var rows []models.PlacementRecord
	query := `
        SELECT
            tp.tournament_id,
            COALESCE(p.id, 0) AS player_id,
            COALESCE(tp.team_id, 0) AS team_id,
            tp.placement,
            tp.registered_at,
            tp.is_active
        FROM tournament_participants tp
        LEFT JOIN players p ON tp.player_id = p.id
        WHERE tp.tournament_id = ? AND tp.placement IS NOT NULL
    `
	if err := s.DB.WithContext(ctx).Raw(query, tournamentID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("record store placements: %w", err)
	}
	return rows, nil
}

func (s *GormRecordStore) FetchMatchOutcomes(ctx context.Context, tournamentID int64) ([]models.MatchOutcome, error) {
	var rows []models.MatchOutcome
	query := `
        SELECT tournament_id, winner_id, loser_id
        FROM matches
        WHERE tournament_id = ? AND status = 'completed'
    `
	if err := s.DB.WithContext(ctx).Raw(query, tournamentID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("record store match outcomes: %w", err)
	}
	return rows, nil
}

func (s *GormRecordStore) FetchGameFormat(ctx context.Context, tournamentID int64) (string, error) {
	var format string
	query := `
        SELECT COALESCE(g.game_code, '')
        FROM tournaments t
        LEFT JOIN games g ON t.game_id = g.id
        WHERE t.id = ?
    `
	err := s.DB.WithContext(ctx).Raw(query, tournamentID).Scan(&format).Error
	if err != nil {
		return "", fmt.Errorf("record store game format: %w", err)
	}
	// nonexistent tournament is "no data", not an error
	return format, nil
}

func (s *GormRecordStore) FetchStandings(ctx context.Context, seasonID int64, gameCode string) ([]models.StandingRecord, error) {
	var rows []models.StandingRecord
	query := `
        SELECT
            ss.season_id,
            ss.game_code,
            COALESCE(p.id, 0) AS player_id,
            COALESCE(ss.team_id, 0) AS team_id,
            ss.points,
            ss.wins,
            ss.losses,
            ss.registered_at,
            ss.is_active
        FROM season_standings ss
        LEFT JOIN players p ON ss.player_id = p.id
        WHERE ss.season_id = ?
    `
	args := []interface{}{seasonID}
	if gameCode != "" {
		query += ` AND ss.game_code = ?`
		args = append(args, gameCode)
	}
	if err := s.DB.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("record store standings: %w", err)
	}
	return rows, nil
}

func (s *GormRecordStore) ListSeasonIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `SELECT DISTINCT season_id FROM season_standings WHERE season_id > 0 ORDER BY season_id`
	if err := s.DB.WithContext(ctx).Raw(query).Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("record store season ids: %w", err)
	}
	return ids, nil
}

func (s *GormRecordStore) ListGameCodes(ctx context.Context) ([]string, error) {
	var codes []string
	query := `SELECT DISTINCT game_code FROM season_standings WHERE game_code <> '' ORDER BY game_code`
	if err := s.DB.WithContext(ctx).Raw(query).Scan(&codes).Error; err != nil {
		return nil, fmt.Errorf("record store game codes: %w", err)
	}
	return codes, nil
}
