package utils

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds everything read from the environment at startup. The three
// feature flags are independently toggleable: api off makes every endpoint
// 404, computation off returns empty boards with an explicit marker, cache
// off makes every read bypass the cache layer.
type Settings struct {
	ComputationEnabled bool
	CacheEnabled       bool
	APIEnabled         bool

	TournamentTTL time.Duration
	SeasonTTL     time.Duration
	AllTimeTTL    time.Duration

	ScoringTablesJSON string // SCORING_TABLES, validated by the table set

	SnapshotHourUTC int // hour of day the snapshot job fires

	ListenAddr string
}

// LoadSettings reads the environment with sane production defaults. Missing
// flags default to enabled; TTLs default to 5m / 1h / 24h per scope.
func LoadSettings() *Settings {
	s := &Settings{
		ComputationEnabled: envBool("LEADERBOARD_COMPUTATION_ENABLED", true),
		CacheEnabled:       envBool("LEADERBOARD_CACHE_ENABLED", true),
		APIEnabled:         envBool("LEADERBOARD_API_ENABLED", true),
		TournamentTTL:      envDuration("LEADERBOARD_TOURNAMENT_TTL", 5*time.Minute),
		SeasonTTL:          envDuration("LEADERBOARD_SEASON_TTL", time.Hour),
		AllTimeTTL:         envDuration("LEADERBOARD_ALL_TIME_TTL", 24*time.Hour),
		ScoringTablesJSON:  os.Getenv("SCORING_TABLES"),
		SnapshotHourUTC:    envInt("SNAPSHOT_HOUR_UTC", 2),
		ListenAddr:         os.Getenv("LISTEN_ADDR"),
	}
	if s.ListenAddr == "" {
		s.ListenAddr = ":5300"
	}
	if s.SnapshotHourUTC < 0 || s.SnapshotHourUTC > 23 {
		log.Printf("⚠️  SNAPSHOT_HOUR_UTC out of range, using 02:00 UTC")
		s.SnapshotHourUTC = 2
	}
	return s
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes"
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("⚠️  %s=%q is not a valid duration, using %s", key, v, def)
		return def
	}
	return d
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}
