package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaderboard-service/models"
)

// memSnapshotStore honors the composite snapshot key the way the Postgres
// unique index does: one row per (date, type, season, game, player),
// last write wins.
type memSnapshotStore struct {
	rows map[string]models.LeaderboardSnapshot
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{rows: map[string]models.LeaderboardSnapshot{}}
}

func snapshotKey(r models.LeaderboardSnapshot) string {
	return fmt.Sprintf("%s|%s|%d|%s|%d",
		r.SnapshotDate.Format("2006-01-02"), r.LeaderboardType, r.SeasonID, r.GameCode, r.PlayerID)
}

func (m *memSnapshotStore) Upsert(_ context.Context, rows []models.LeaderboardSnapshot) error {
	for _, r := range rows {
		key := snapshotKey(r)
		if existing, ok := m.rows[key]; ok {
			existing.Rank = r.Rank
			existing.Points = r.Points
			existing.TeamID = r.TeamID
			existing.UpdatedAt = time.Now().UTC()
			m.rows[key] = existing
			continue
		}
		m.rows[key] = r
	}
	return nil
}

func (m *memSnapshotStore) ListByDate(_ context.Context, date time.Time) ([]models.LeaderboardSnapshot, error) {
	var out []models.LeaderboardSnapshot
	day := date.Format("2006-01-02")
	for _, r := range m.rows {
		if r.SnapshotDate.Format("2006-01-02") == day {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memSnapshotStore) HistoryForPlayer(_ context.Context, playerID int64, leaderboardType string) ([]models.RankHistoryPoint, error) {
	var out []models.RankHistoryPoint
	for _, r := range m.rows {
		if r.PlayerID != playerID || r.LeaderboardType != leaderboardType {
			continue
		}
		if leaderboardType == models.ScopeAllTime && (r.SeasonID != 0 || r.GameCode != "") {
			continue
		}
		out = append(out, models.RankHistoryPoint{
			Date:            r.SnapshotDate,
			Rank:            r.Rank,
			Points:          r.Points,
			LeaderboardType: r.LeaderboardType,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func standingsStore() *fakeRecordStore {
	return &fakeRecordStore{
		standings: []models.StandingRecord{
			// all-time rows
			{SeasonID: 0, GameCode: "chess", PlayerID: 1, TeamID: 10, Points: 900, Wins: 9, RegisteredAt: registered(0), IsActive: true},
			{SeasonID: 0, GameCode: "chess", PlayerID: 2, TeamID: 20, Points: 700, Wins: 5, RegisteredAt: registered(1), IsActive: true},
			// season rows
			{SeasonID: 7, GameCode: "chess", PlayerID: 1, TeamID: 10, Points: 300, Wins: 3, RegisteredAt: registered(0), IsActive: true},
			{SeasonID: 7, GameCode: "chess", PlayerID: 2, TeamID: 20, Points: 200, Wins: 2, RegisteredAt: registered(1), IsActive: true},
		},
		seasonIDs: []int64{7},
		gameCodes: []string{"chess"},
	}
}

func newTestSnapshotService(records *fakeRecordStore, store SnapshotStore) *SnapshotService {
	computer := newTestComputer(records)
	return NewSnapshotService(computer, records, store, nil, testSettings())
}

func TestSnapshotRunIdempotent(t *testing.T) {
	records := standingsStore()
	store := newMemSnapshotStore()
	svc := newTestSnapshotService(records, store)
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	first, err := svc.Run(context.Background(), day)
	require.NoError(t, err)
	// scopes: all_time overall, all_time:chess, season 7 — 2 players each
	assert.Equal(t, 6, first)
	assert.Len(t, store.rows, 6)

	before := make(map[string]models.LeaderboardSnapshot, len(store.rows))
	for k, v := range store.rows {
		before[k] = v
	}

	second, err := svc.Run(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 6, second)
	assert.Len(t, store.rows, 6, "re-run must not duplicate rows")
	for k, v := range before {
		after, ok := store.rows[k]
		require.True(t, ok)
		assert.Equal(t, v.Rank, after.Rank)
		assert.Equal(t, v.Points, after.Points)
		assert.Equal(t, v.ID, after.ID, "existing rows are updated in place, not replaced")
	}
}

func TestSnapshotRunUpdatesChangedData(t *testing.T) {
	records := standingsStore()
	store := newMemSnapshotStore()
	svc := newTestSnapshotService(records, store)
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	_, err := svc.Run(context.Background(), day)
	require.NoError(t, err)

	// player 2 overtakes player 1 before a re-run on the same date
	records.standings[0].Points = 100

	_, err = svc.Run(context.Background(), day)
	require.NoError(t, err)
	assert.Len(t, store.rows, 6, "changed data updates rows, never adds a second row for the date")

	history, err := svc.History(context.Background(), 2, models.ScopeAllTime)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Rank, "player 2 now leads the all-time board")
}

func TestSnapshotHistoryDateOrder(t *testing.T) {
	records := standingsStore()
	store := newMemSnapshotStore()
	svc := newTestSnapshotService(records, store)

	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := svc.Run(context.Background(), base.AddDate(0, 0, i))
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background(), 1, models.ScopeAllTime)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].Date.Before(history[i].Date),
			"dates must be strictly increasing with no duplicates")
	}
}

func TestSnapshotRunSkipsWhenComputationDisabled(t *testing.T) {
	records := standingsStore()
	store := newMemSnapshotStore()
	svc := newTestSnapshotService(records, store)
	svc.Settings.ComputationEnabled = false

	rows, err := svc.Run(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Empty(t, store.rows)
}

func TestSnapshotHistoryUnknownPlayer(t *testing.T) {
	svc := newTestSnapshotService(standingsStore(), newMemSnapshotStore())

	history, err := svc.History(context.Background(), 999, models.ScopeAllTime)
	require.NoError(t, err, "nonexistent player is no data, not an error")
	assert.NotNil(t, history)
	assert.Empty(t, history)
}
