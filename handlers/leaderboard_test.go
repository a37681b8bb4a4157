package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaderboard-service/models"
	"leaderboard-service/services"
	"leaderboard-service/utils"
)

// stubRecords is a minimal record store: one tournament with two placed
// players and one all-time standing set.
type stubRecords struct{}

func (stubRecords) FetchPlacements(_ context.Context, tournamentID int64) ([]models.PlacementRecord, error) {
	if tournamentID != 1 {
		return nil, nil
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.PlacementRecord{
		{TournamentID: 1, PlayerID: 11, TeamID: 1, Placement: 1, RegisteredAt: base, IsActive: true},
		{TournamentID: 1, PlayerID: 12, TeamID: 2, Placement: 2, RegisteredAt: base.Add(time.Minute), IsActive: true},
	}, nil
}

func (stubRecords) FetchMatchOutcomes(context.Context, int64) ([]models.MatchOutcome, error) {
	return nil, nil
}

func (stubRecords) FetchGameFormat(context.Context, int64) (string, error) { return "", nil }

func (stubRecords) FetchStandings(_ context.Context, seasonID int64, _ string) ([]models.StandingRecord, error) {
	if seasonID != 0 {
		return nil, nil
	}
	return []models.StandingRecord{
		{PlayerID: 11, TeamID: 1, Points: 500, Wins: 5, RegisteredAt: time.Now().UTC(), IsActive: true},
	}, nil
}

func (stubRecords) ListSeasonIDs(context.Context) ([]int64, error)  { return nil, nil }
func (stubRecords) ListGameCodes(context.Context) ([]string, error) { return nil, nil }

// memHistory satisfies the snapshot store without a database.
type memHistory struct{}

func (memHistory) Upsert(context.Context, []models.LeaderboardSnapshot) error { return nil }
func (memHistory) ListByDate(context.Context, time.Time) ([]models.LeaderboardSnapshot, error) {
	return nil, nil
}
func (memHistory) HistoryForPlayer(context.Context, int64, string) ([]models.RankHistoryPoint, error) {
	return []models.RankHistoryPoint{}, nil
}

func newTestApp(settings *utils.Settings) *fiber.App {
	app := fiber.New()
	computer := services.NewLeaderboardComputer(stubRecords{}, services.NewTableSet())
	cache := services.NewCacheLayer(services.NewMemoryCache(), computer, settings)
	snapshots := services.NewSnapshotService(computer, stubRecords{}, memHistory{}, nil, settings)
	leaderboards := services.NewLeaderboardService(cache, snapshots, settings)
	SetupLeaderboardRoutes(app, leaderboards, snapshots, settings)
	return app
}

func enabledSettings() *utils.Settings {
	return &utils.Settings{
		ComputationEnabled: true,
		CacheEnabled:       true,
		APIEnabled:         true,
		TournamentTTL:      time.Minute,
		SeasonTTL:          time.Hour,
		AllTimeTTL:         24 * time.Hour,
	}
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload
}

func TestGetTournamentLeaderboard(t *testing.T) {
	app := newTestApp(enabledSettings())

	resp, err := app.Test(httptest.NewRequest("GET", "/leaderboards/tournament/1", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	payload := decodeBody(t, resp.Body)
	assert.Equal(t, "tournament", payload["scope"])
	entries := payload["entries"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, float64(11), first["player_id"])
}

func TestSeasonRequiresSeasonID(t *testing.T) {
	app := newTestApp(enabledSettings())

	resp, err := app.Test(httptest.NewRequest("GET", "/leaderboards/season", nil))
	require.NoError(t, err)
	require.Equal(t, 400, resp.StatusCode)

	payload := decodeBody(t, resp.Body)
	assert.Contains(t, payload["error"], "season_id is required")
}

func TestUnknownScopeRejected(t *testing.T) {
	app := newTestApp(enabledSettings())

	resp, err := app.Test(httptest.NewRequest("GET", "/leaderboards/weekly", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestAPIDisabledHidesEverything(t *testing.T) {
	settings := enabledSettings()
	settings.APIEnabled = false
	app := newTestApp(settings)

	for _, path := range []string{"/leaderboards/tournament/1", "/leaderboards/all_time", "/leaderboards/player/11/history"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode, "path %s", path)
	}
}

func TestComputationDisabledMarker(t *testing.T) {
	settings := enabledSettings()
	settings.ComputationEnabled = false
	app := newTestApp(settings)

	resp, err := app.Test(httptest.NewRequest("GET", "/leaderboards/tournament/1", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode, "feature off is never an error")

	payload := decodeBody(t, resp.Body)
	assert.Empty(t, payload["entries"])
	metadata := payload["metadata"].(map[string]interface{})
	assert.Equal(t, true, metadata["computation_disabled"])
}

func TestUnknownTournamentIsEmptyNotError(t *testing.T) {
	app := newTestApp(enabledSettings())

	resp, err := app.Test(httptest.NewRequest("GET", "/leaderboards/tournament/999", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	payload := decodeBody(t, resp.Body)
	assert.Empty(t, payload["entries"])
}

func TestAdminRoutesRequireUserContext(t *testing.T) {
	app := newTestApp(enabledSettings())

	req := httptest.NewRequest("POST", "/admin/snapshots/run", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req = httptest.NewRequest("POST", "/admin/snapshots/run", nil)
	req.Header.Set("X-User-ID", "admin-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
