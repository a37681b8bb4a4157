package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"leaderboard-service/models"
	"leaderboard-service/utils"
)

// LeaderboardService is the paginated, PII-free read surface. Ordering is
// always ascending by rank regardless of how the cached list was stored.
type LeaderboardService struct {
	Cache     *CacheLayer
	Snapshots *SnapshotService
	Settings  *utils.Settings
}

func NewLeaderboardService(cache *CacheLayer, snapshots *SnapshotService, settings *utils.Settings) *LeaderboardService {
	return &LeaderboardService{Cache: cache, Snapshots: snapshots, Settings: settings}
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// List returns one deterministic page of the scope's board. Metadata.Count is
// the total number of active entries, not the page size, so callers can
// paginate. limit <= 0 returns everything from offset on.
func (s *LeaderboardService) List(ctx context.Context, scope models.Scope, limit, offset int) ([]models.LeaderboardEntry, models.Metadata, error) {
	entries, meta, err := s.Cache.GetOrCompute(ctx, scope)
	if err != nil {
		return nil, meta, err
	}

	// defend the ordering guarantee even against out-of-order cached data
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Rank < entries[j].Rank
	})

	meta.Count = len(entries)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return []models.LeaderboardEntry{}, meta, nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, meta, nil
}

// --- fiber handlers ---

// GetTournamentLeaderboard handles GET /leaderboards/tournament/:id
func (s *LeaderboardService) GetTournamentLeaderboard(c *fiber.Ctx) error {
	tournamentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || tournamentID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "tournament id must be a positive integer"})
	}
	scope := models.TournamentScope(tournamentID)
	limit, offset := pageParams(c)

	entries, meta, err := s.List(c.UserContext(), scope, limit, offset)
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(fiber.Map{
		"scope":   scope.Type,
		"entries": entries,
		"metadata": fiber.Map{
			"count":                meta.Count,
			"cache_hit":            meta.CacheHit,
			"computation_disabled": meta.ComputationDisabled,
			"tournament_id":        tournamentID,
		},
	})
}

// GetScopedLeaderboard handles GET /leaderboards/:scope for season and
// all_time. season requires ?season_id=; ?game_code= is optional for both.
func (s *LeaderboardService) GetScopedLeaderboard(c *fiber.Ctx) error {
	scopeType := c.Params("scope")
	gameCode := c.Query("game_code")

	var scope models.Scope
	switch scopeType {
	case models.ScopeSeason:
		seasonID, err := strconv.ParseInt(c.Query("season_id"), 10, 64)
		if err != nil || seasonID <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": models.ErrSeasonIDRequired.Error()})
		}
		scope = models.SeasonScope(seasonID, gameCode)
	case models.ScopeAllTime:
		scope = models.AllTimeScope(gameCode)
	default:
		return c.Status(400).JSON(fiber.Map{"error": "scope must be one of: season, all_time"})
	}

	limit, offset := pageParams(c)
	entries, meta, err := s.List(c.UserContext(), scope, limit, offset)
	if err != nil {
		return s.renderError(c, err)
	}

	metadata := fiber.Map{
		"count":                meta.Count,
		"cache_hit":            meta.CacheHit,
		"computation_disabled": meta.ComputationDisabled,
	}
	if scope.SeasonID > 0 {
		metadata["season_id"] = scope.SeasonID
	}
	if scope.GameCode != "" {
		metadata["game_code"] = scope.GameCode
	}
	return c.JSON(fiber.Map{
		"scope":    scope.Type,
		"entries":  entries,
		"metadata": metadata,
	})
}

// GetPlayerHistory handles GET /leaderboards/player/:id/history. An unknown
// player is "no data": an empty history, not an error.
func (s *LeaderboardService) GetPlayerHistory(c *fiber.Ctx) error {
	playerID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || playerID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "player id must be a positive integer"})
	}
	leaderboardType := c.Query("type", models.ScopeAllTime)
	switch leaderboardType {
	case models.ScopeTournament, models.ScopeSeason, models.ScopeAllTime:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "type must be one of: tournament, season, all_time"})
	}

	history, err := s.Snapshots.History(c.UserContext(), playerID, leaderboardType)
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(fiber.Map{
		"player_id": playerID,
		"history":   history,
		"count":     len(history),
	})
}

// InvalidateLeaderboard handles POST /admin/leaderboards/invalidate with a
// scope payload. Explicit invalidation is the only invalidation path — no
// hidden reactive triggers.
func (s *LeaderboardService) InvalidateLeaderboard(c *fiber.Ctx) error {
	var scope models.Scope
	if err := c.BodyParser(&scope); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	scope.GameCode = models.NormalizeGameCode(scope.GameCode)
	if err := s.Cache.Invalidate(scope); err != nil {
		return s.renderError(c, err)
	}
	key, _ := scope.CacheKey()
	log.Printf("[Leaderboard] cache invalidated for %s by %v", key, c.Locals("user_id"))
	return c.JSON(fiber.Map{"message": "cache invalidated", "key": key})
}

func (s *LeaderboardService) renderError(c *fiber.Ctx, err error) error {
	if errors.Is(err, models.ErrUnknownScope) ||
		errors.Is(err, models.ErrSeasonIDRequired) ||
		errors.Is(err, models.ErrTournamentIDRequired) {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("[Leaderboard] ERROR: %v", err)
	return c.Status(500).JSON(fiber.Map{"error": "failed to compute leaderboard"})
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", defaultPageLimit)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
