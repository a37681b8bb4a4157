package models

import "time"

// LeaderboardSnapshot is the one durable artifact this service owns: one row
// per (date, scope, game filter, subject), upserted by the daily job. Re-runs
// for the same date replace the row in place — the table is idempotent, not
// append-only.
type LeaderboardSnapshot struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	SnapshotDate    time.Time `json:"snapshot_date" gorm:"type:date;not null;uniqueIndex:idx_snapshot_key"`
	LeaderboardType string    `json:"leaderboard_type" gorm:"size:16;not null;uniqueIndex:idx_snapshot_key"`
	SeasonID        int64     `json:"season_id" gorm:"default:0;uniqueIndex:idx_snapshot_key"`
	GameCode        string    `json:"game_code" gorm:"size:64;default:'';uniqueIndex:idx_snapshot_key"`
	PlayerID        int64     `json:"player_id" gorm:"not null;index;uniqueIndex:idx_snapshot_key"`
	TeamID          int64     `json:"team_id" gorm:"default:0"`
	Rank            int       `json:"rank" gorm:"not null"`
	Points          int64     `json:"points" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (LeaderboardSnapshot) TableName() string {
	return "leaderboard_snapshots"
}

// RankHistoryPoint is one step of a player's rank trend, read back from the
// snapshot table in date order.
type RankHistoryPoint struct {
	Date            time.Time `json:"date"`
	Rank            int       `json:"rank"`
	Points          int64     `json:"points"`
	LeaderboardType string    `json:"leaderboard_type"`
}
