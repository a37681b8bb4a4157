package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leaderboard-service/models"
	"leaderboard-service/utils"
)

// SnapshotStore persists daily rank history rows. Upsert must resolve
// concurrent writes for the same key via the store's native conflict
// primitive — the service never invents its own locking.
type SnapshotStore interface {
	Upsert(ctx context.Context, rows []models.LeaderboardSnapshot) error
	ListByDate(ctx context.Context, date time.Time) ([]models.LeaderboardSnapshot, error)
	HistoryForPlayer(ctx context.Context, playerID int64, leaderboardType string) ([]models.RankHistoryPoint, error)
}

// GormSnapshotStore upserts on the composite snapshot key in one statement.
type GormSnapshotStore struct {
	DB *gorm.DB
}

func NewGormSnapshotStore(db *gorm.DB) *GormSnapshotStore {
	return &GormSnapshotStore{DB: db}
}

func (s *GormSnapshotStore) Upsert(ctx context.Context, rows []models.LeaderboardSnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	// Bulk upsert keyed by the snapshot's unique index: a re-run for the same
	// date replaces rank/points in place instead of inserting duplicates.
	return s.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "snapshot_date"},
				{Name: "leaderboard_type"},
				{Name: "season_id"},
				{Name: "game_code"},
				{Name: "player_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"team_id",
				"rank",
				"points",
				"updated_at",
			}),
		},
	).Create(&rows).Error
}

func (s *GormSnapshotStore) ListByDate(ctx context.Context, date time.Time) ([]models.LeaderboardSnapshot, error) {
	var rows []models.LeaderboardSnapshot
	err := s.DB.WithContext(ctx).
		Where("snapshot_date = ?", date.Format("2006-01-02")).
		Order("leaderboard_type, season_id, game_code, rank").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", date.Format("2006-01-02"), err)
	}
	return rows, nil
}

func (s *GormSnapshotStore) HistoryForPlayer(ctx context.Context, playerID int64, leaderboardType string) ([]models.RankHistoryPoint, error) {
	var points []models.RankHistoryPoint
	// ⚠️ "rank" is quoted — reserved-adjacent keyword in PostgreSQL
	query := `
        SELECT snapshot_date AS date, "rank", points, leaderboard_type
        FROM leaderboard_snapshots
        WHERE player_id = ? AND leaderboard_type = ? AND season_id = 0 AND game_code = ''
        ORDER BY snapshot_date ASC
    `
	if leaderboardType != models.ScopeAllTime {
		// season/tournament history spans scope instances; order stays by date
		query = `
            SELECT snapshot_date AS date, "rank", points, leaderboard_type
            FROM leaderboard_snapshots
            WHERE player_id = ? AND leaderboard_type = ?
            ORDER BY snapshot_date ASC
        `
	}
	if err := s.DB.WithContext(ctx).Raw(query, playerID, leaderboardType).Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("player %d history: %w", playerID, err)
	}
	return points, nil
}

// SnapshotService writes one row per (date, scope, subject) capturing
// rank/points. It computes directly rather than through the cache so history
// never records a stale board.
type SnapshotService struct {
	Computer *LeaderboardComputer
	Records  RecordStore
	Store    SnapshotStore
	Archiver *utils.R2Archiver // nil when archive export is not configured
	Settings *utils.Settings
}

func NewSnapshotService(computer *LeaderboardComputer, records RecordStore, store SnapshotStore, archiver *utils.R2Archiver, settings *utils.Settings) *SnapshotService {
	return &SnapshotService{
		Computer: computer,
		Records:  records,
		Store:    store,
		Archiver: archiver,
		Settings: settings,
	}
}

// Run snapshots every tracked scope for the given date: the overall all-time
// board, the all-time board per game code, and every season the record store
// knows. Re-running for the same date upserts in place — same final state
// for unchanged data, updated rows for changed data.
func (s *SnapshotService) Run(ctx context.Context, date time.Time) (int, error) {
	if !s.Settings.ComputationEnabled {
		log.Printf("[Snapshot] computation disabled, skipping run for %s", date.Format("2006-01-02"))
		return 0, nil
	}
	day := date.UTC().Truncate(24 * time.Hour)

	scopes := []models.Scope{models.AllTimeScope("")}
	gameCodes, err := s.Records.ListGameCodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot run: %w", err)
	}
	for _, code := range gameCodes {
		scopes = append(scopes, models.AllTimeScope(code))
	}
	seasonIDs, err := s.Records.ListSeasonIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot run: %w", err)
	}
	for _, id := range seasonIDs {
		scopes = append(scopes, models.SeasonScope(id, ""))
	}

	total := 0
	for _, scope := range scopes {
		entries, err := s.Computer.Compute(ctx, scope)
		if err != nil {
			return total, fmt.Errorf("snapshot compute %s: %w", scope.Type, err)
		}
		rows := make([]models.LeaderboardSnapshot, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, models.LeaderboardSnapshot{
				ID:              uuid.NewString(),
				SnapshotDate:    day,
				LeaderboardType: scope.Type,
				SeasonID:        scope.SeasonID,
				GameCode:        scope.GameCode,
				PlayerID:        e.PlayerID,
				TeamID:          e.TeamID,
				Rank:            e.Rank,
				Points:          e.Points,
			})
		}
		if err := s.Store.Upsert(ctx, rows); err != nil {
			return total, fmt.Errorf("snapshot upsert %s: %w", scope.Type, err)
		}
		total += len(rows)
	}

	log.Printf("[Snapshot] upserted %d row(s) across %d scope(s) for %s", total, len(scopes), day.Format("2006-01-02"))
	s.archive(ctx, day)
	return total, nil
}

// archive exports the day's rows as JSON to object storage. The export is
// auxiliary — failures are logged, never surfaced to the snapshot run.
func (s *SnapshotService) archive(ctx context.Context, day time.Time) {
	if s.Archiver == nil {
		return
	}
	rows, err := s.Store.ListByDate(ctx, day)
	if err != nil {
		log.Printf("[Snapshot] ❌ archive read failed: %v", err)
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		log.Printf("[Snapshot] ❌ archive marshal failed: %v", err)
		return
	}
	key := fmt.Sprintf("snapshots/%s.json", day.Format("2006-01-02"))
	if err := s.Archiver.Upload(ctx, key, data); err != nil {
		log.Printf("[Snapshot] ❌ archive upload failed for %s: %v", key, err)
		return
	}
	log.Printf("[Snapshot] ✅ archived %d row(s) to %s", len(rows), key)
}

// History returns a player's rank trend in strictly increasing date order.
func (s *SnapshotService) History(ctx context.Context, playerID int64, leaderboardType string) ([]models.RankHistoryPoint, error) {
	points, err := s.Store.HistoryForPlayer(ctx, playerID, leaderboardType)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []models.RankHistoryPoint{}
	}
	return points, nil
}

// RunNow handles POST /admin/snapshots/run, the explicit trigger that
// supplements the scheduler. Body: {"date": "2006-01-02"} (optional).
func (s *SnapshotService) RunNow(c *fiber.Ctx) error {
	type Req struct {
		Date string `json:"date,omitempty"`
	}
	var req Req
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
		}
	}
	day := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid date (use YYYY-MM-DD)"})
		}
		day = parsed
	}

	rows, err := s.Run(c.UserContext(), day)
	if err != nil {
		log.Printf("[Snapshot] ERROR: manual run failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "snapshot run failed"})
	}
	return c.JSON(fiber.Map{
		"message": "snapshot run complete",
		"date":    day.Format("2006-01-02"),
		"rows":    rows,
	})
}
